package canvas

import (
	"image"
	"image/color"
	"strconv"

	"cellseg/internal/editor"
	"cellseg/internal/segmentation"
	"cellseg/pkg/colorutil"
	"cellseg/pkg/geometry"
)

var (
	backgroundColor = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 255}
	selectionColor  = color.RGBA{R: 0xff, G: 0xb3, B: 0x00, A: 255}
	draftColor      = color.RGBA{R: 0x00, G: 0xe5, B: 0xff, A: 255}
	sliceColor      = color.RGBA{R: 0xff, G: 0x40, B: 0x81, A: 255}
	holeColor       = color.RGBA{R: 0xb0, G: 0xb0, B: 0xb0, A: 255}

	fillAlpha = 70
)

// draw is the raster drawing function. Everything is composed into one RGBA
// frame: micrograph, polygon overlay, transient editing state.
func (ic *ImageCanvas) draw(w, h int) image.Image {
	output := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(output.Pix); i += 4 {
		output.Pix[i] = backgroundColor.R
		output.Pix[i+1] = backgroundColor.G
		output.Pix[i+2] = backgroundColor.B
		output.Pix[i+3] = 255
	}

	t := ic.editor.Transform()
	if ic.img != nil {
		drawMicrograph(output, ic.img, t)
	}

	if !ic.hideOverlay {
		ic.drawSegmentation(output, t)
	}
	ic.drawDraft(output, t)
	ic.drawSliceMarker(output, t)

	ic.lastOutput = output
	return output
}

// drawMicrograph maps each output pixel back through the view transform and
// samples the source image nearest-neighbor.
func drawMicrograph(output *image.RGBA, src image.Image, t editor.Transform) {
	srcBounds := src.Bounds()
	outBounds := output.Bounds()

	for y := outBounds.Min.Y; y < outBounds.Max.Y; y++ {
		for x := outBounds.Min.X; x < outBounds.Max.X; x++ {
			p := t.ScreenToImage(float64(x), float64(y))
			srcX := int(p.X) + srcBounds.Min.X
			srcY := int(p.Y) + srcBounds.Min.Y
			if p.X < 0 || p.Y < 0 ||
				srcX < srcBounds.Min.X || srcX >= srcBounds.Max.X ||
				srcY < srcBounds.Min.Y || srcY >= srcBounds.Max.Y {
				continue
			}
			output.Set(x, y, src.At(srcX, srcY))
		}
	}
}

// drawSegmentation draws every polygon: externals filled and outlined with
// their assigned color, holes as plain outlines. The polygon under an active
// vertex drag is drawn from its live preview ring.
func (ic *ImageCanvas) drawSegmentation(output *image.RGBA, t editor.Transform) {
	data := ic.editor.Data()
	if data == nil || len(data.Polygons) == 0 {
		return
	}

	dragID, dragRing := ic.editor.DragPreview()
	selectedID := ic.editor.SelectedID()
	mode := ic.editor.Mode()

	label := 0
	for i, poly := range data.Polygons {
		ring := poly.Points
		if poly.ID == dragID {
			ring = dragRing
		}
		if len(ring) < 3 {
			continue
		}
		screen := screenRing(ring, t)

		if poly.Type == segmentation.Internal {
			drawRingOutline(output, screen, holeColor, 1)
			continue
		}
		label++

		col := polygonColor(poly, i)
		fillRing(output, screen, colorutil.WithAlpha(col, uint8(fillAlpha)))

		thickness := 2
		outline := col
		if poly.ID == selectedID {
			outline = selectionColor
			thickness = 3
		}
		drawRingOutline(output, screen, outline, thickness)

		center := geometry.Centroid(screen)
		drawIndexLabel(output, strconv.Itoa(label), int(center.X), int(center.Y), t.Zoom)

		if poly.ID == selectedID && (mode == editor.ModeEditVertices || mode == editor.ModeAddPoints) {
			drawHandles(output, screen, selectionColor)
		}
	}
}

// drawDraft draws the in-progress outline for create and add-points modes,
// with a rubber line from the last point to the cursor.
func (ic *ImageCanvas) drawDraft(output *image.RGBA, t editor.Transform) {
	draft := ic.editor.Draft()
	if len(draft) == 0 {
		return
	}

	screen := screenRing(draft, t)
	for i := 0; i+1 < len(screen); i++ {
		drawLine(output,
			int(screen[i].X), int(screen[i].Y),
			int(screen[i+1].X), int(screen[i+1].Y),
			draftColor, 2)
	}
	drawHandles(output, screen, draftColor)

	if ic.cursorValid {
		last := screen[len(screen)-1]
		drawDashedLine(output,
			int(last.X), int(last.Y),
			int(ic.cursorX), int(ic.cursorY),
			draftColor)
	}
}

// drawSliceMarker draws the first slice endpoint and a preview line to the
// cursor while the second endpoint is pending.
func (ic *ImageCanvas) drawSliceMarker(output *image.RGBA, t editor.Transform) {
	start, ok := ic.editor.SliceStart()
	if !ok {
		return
	}
	sx, sy := t.ImageToScreen(start)
	drawCross(output, int(sx), int(sy), 6, sliceColor)
	if ic.cursorValid {
		drawDashedLine(output, int(sx), int(sy), int(ic.cursorX), int(ic.cursorY), sliceColor)
	}
}

func polygonColor(poly segmentation.Polygon, index int) color.RGBA {
	if poly.Color != "" {
		if col, err := colorutil.ParseHex(poly.Color); err == nil {
			return col
		}
	}
	return colorutil.IndexColor(index)
}

// screenRing maps an image-space ring to screen coordinates.
func screenRing(ring []geometry.Point2D, t editor.Transform) []geometry.Point2D {
	out := make([]geometry.Point2D, len(ring))
	for i, p := range ring {
		x, y := t.ImageToScreen(p)
		out[i] = geometry.Point2D{X: x, Y: y}
	}
	return out
}

// fillRing fills a polygon using a scanline pass, alpha blending so the
// micrograph stays readable underneath.
func fillRing(output *image.RGBA, ring []geometry.Point2D, col color.RGBA) {
	bounds := output.Bounds()

	minY, maxY := ring[0].Y, ring[0].Y
	for _, p := range ring {
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	n := len(ring)
	for y := int(minY); y <= int(maxY); y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}

		var xs []float64
		for i := 0; i < n; i++ {
			p1 := ring[i]
			p2 := ring[(i+1)%n]
			if (p1.Y <= float64(y) && p2.Y > float64(y)) ||
				(p2.Y <= float64(y) && p1.Y > float64(y)) {
				frac := (float64(y) - p1.Y) / (p2.Y - p1.Y)
				xs = append(xs, p1.X+frac*(p2.X-p1.X))
			}
		}

		for i := 0; i < len(xs)-1; i++ {
			for j := i + 1; j < len(xs); j++ {
				if xs[j] < xs[i] {
					xs[i], xs[j] = xs[j], xs[i]
				}
			}
		}

		for i := 0; i+1 < len(xs); i += 2 {
			x1, x2 := int(xs[i]), int(xs[i+1])
			for x := x1; x <= x2; x++ {
				if x >= bounds.Min.X && x < bounds.Max.X {
					blendPixel(output, x, y, col)
				}
			}
		}
	}
}

func drawRingOutline(output *image.RGBA, ring []geometry.Point2D, col color.RGBA, thickness int) {
	n := len(ring)
	for i := 0; i < n; i++ {
		p1 := ring[i]
		p2 := ring[(i+1)%n]
		drawLine(output, int(p1.X), int(p1.Y), int(p2.X), int(p2.Y), col, thickness)
	}
}

// drawHandles draws a small filled square on each vertex.
func drawHandles(output *image.RGBA, ring []geometry.Point2D, col color.RGBA) {
	const half = 3
	bounds := output.Bounds()
	for _, p := range ring {
		cx, cy := int(p.X), int(p.Y)
		for dy := -half; dy <= half; dy++ {
			for dx := -half; dx <= half; dx++ {
				px, py := cx+dx, cy+dy
				if px >= bounds.Min.X && px < bounds.Max.X &&
					py >= bounds.Min.Y && py < bounds.Max.Y {
					output.Set(px, py, col)
				}
			}
		}
	}
}

// drawLine draws a line between two points using Bresenham's algorithm.
func drawLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	bounds := output.Bounds()

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				px, py := x1+s, y1+t
				if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
					output.Set(px, py, col)
				}
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawDashedLine draws a 4-on 4-off dashed line.
func drawDashedLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA) {
	bounds := output.Bounds()

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy
	step := 0

	for {
		if step%8 < 4 &&
			x1 >= bounds.Min.X && x1 < bounds.Max.X &&
			y1 >= bounds.Min.Y && y1 < bounds.Max.Y {
			output.Set(x1, y1, col)
		}
		step++

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawCross draws a plus-shaped marker centered at (cx, cy).
func drawCross(output *image.RGBA, cx, cy, arm int, col color.RGBA) {
	bounds := output.Bounds()
	for d := -arm; d <= arm; d++ {
		if cx+d >= bounds.Min.X && cx+d < bounds.Max.X &&
			cy >= bounds.Min.Y && cy < bounds.Max.Y {
			output.Set(cx+d, cy, col)
		}
		if cx >= bounds.Min.X && cx < bounds.Max.X &&
			cy+d >= bounds.Min.Y && cy+d < bounds.Max.Y {
			output.Set(cx, cy+d, col)
		}
	}
}

func blendPixel(output *image.RGBA, x, y int, col color.RGBA) {
	existing := output.RGBAAt(x, y)
	alpha := float64(col.A) / 255
	inv := 1 - alpha
	output.SetRGBA(x, y, color.RGBA{
		R: uint8(float64(col.R)*alpha + float64(existing.R)*inv),
		G: uint8(float64(col.G)*alpha + float64(existing.G)*inv),
		B: uint8(float64(col.B)*alpha + float64(existing.B)*inv),
		A: 255,
	})
}

// digitPatterns contains 3x5 pixel patterns for digits 0-9. Each digit is
// represented as 5 rows of 3 bits.
var digitPatterns = [10][5]uint8{
	{0b111, 0b101, 0b101, 0b101, 0b111}, // 0
	{0b010, 0b110, 0b010, 0b010, 0b111}, // 1
	{0b111, 0b001, 0b111, 0b100, 0b111}, // 2
	{0b111, 0b001, 0b111, 0b001, 0b111}, // 3
	{0b101, 0b101, 0b111, 0b001, 0b001}, // 4
	{0b111, 0b100, 0b111, 0b001, 0b111}, // 5
	{0b111, 0b100, 0b111, 0b101, 0b111}, // 6
	{0b111, 0b001, 0b001, 0b001, 0b001}, // 7
	{0b111, 0b101, 0b111, 0b101, 0b111}, // 8
	{0b111, 0b101, 0b111, 0b001, 0b111}, // 9
}

// drawIndexLabel draws a polygon's index number centered at the given screen
// position using the built-in digit font, scaled with zoom.
func drawIndexLabel(output *image.RGBA, label string, centerX, centerY int, zoom float64) {
	scale := int(zoom * 2)
	if scale < 1 {
		scale = 1
	}
	if scale > 6 {
		scale = 6
	}

	charWidth := 3 * scale
	charHeight := 5 * scale
	spacing := scale
	labelWidth := len(label)*charWidth + (len(label)-1)*spacing

	startX := centerX - labelWidth/2
	startY := centerY - charHeight/2

	bounds := output.Bounds()

	for i, ch := range label {
		if ch < '0' || ch > '9' {
			continue
		}
		pattern := digitPatterns[ch-'0']
		charX := startX + i*(charWidth+spacing)

		for row := 0; row < 5; row++ {
			for c := 0; c < 3; c++ {
				if (pattern[row] & (1 << (2 - c))) == 0 {
					continue
				}
				for dy := 0; dy < scale; dy++ {
					for dx := 0; dx < scale; dx++ {
						px := charX + c*scale + dx
						py := startY + row*scale + dy
						if px >= bounds.Min.X && px < bounds.Max.X &&
							py >= bounds.Min.Y && py < bounds.Max.Y {
							output.Set(px, py, colorutil.White)
						}
					}
				}
			}
		}
	}
}
