// pkg/label/label.go
package label

import (
	"fmt"
	"strings"

	"label-service/pkg/asset"
	"label-service/pkg/zpl"
)

// command pairs a template with the values it renders from.
type command struct {
	tpl    *zpl.Template
	values zpl.Values
}

// Label is an append-only drawing program for one printed label. Commands
// render in append order, bracketed by the start/end format markers, and
// rendering is pure: the same program always produces the same output.
type Label struct {
	conv converter
	cmds []command

	// lastOrientation suppresses redundant ^A commands when consecutive
	// text fields share an orientation.
	lastOrientation string
}

// New builds an empty label authored in the given unit. dpi is the printer
// resolution and is required for any unit other than raw dots.
func New(unit Unit, dpi int) (*Label, error) {
	conv, err := newConverter(unit, dpi)
	if err != nil {
		return nil, err
	}
	return &Label{conv: conv}, nil
}

// Append validates values against tpl and stores the pair. Validation
// failures surface here, not at render time, so a stored program always
// renders cleanly.
func (l *Label) Append(tpl *zpl.Template, values zpl.Values) error {
	if err := tpl.ValidateParams(values); err != nil {
		return err
	}
	l.cmds = append(l.cmds, command{tpl: tpl, values: values})
	return nil
}

// Len returns the number of appended commands, excluding the format
// brackets.
func (l *Label) Len() int { return len(l.cmds) }

// RenderString serializes the whole program as text between ^XA and ^XZ.
// An empty label renders exactly "^XA^XZ".
func (l *Label) RenderString() (string, error) {
	var b strings.Builder
	start, err := zpl.ZPL_COMMANDS.START_FORMAT.RenderString(nil)
	if err != nil {
		return "", err
	}
	b.WriteString(start)
	for _, c := range l.cmds {
		s, err := c.tpl.RenderString(c.values)
		if err != nil {
			return "", fmt.Errorf("label: render %s: %w", c.tpl.Name(), err)
		}
		b.WriteString(s)
	}
	end, err := zpl.ZPL_COMMANDS.END_FORMAT.RenderString(nil)
	if err != nil {
		return "", err
	}
	b.WriteString(end)
	return b.String(), nil
}

// RenderBytes serializes the whole program as raw bytes between ^XA and
// ^XZ. The total size is computed before copying so the output is built in
// a single allocation, which matters when a program embeds image payloads.
func (l *Label) RenderBytes() ([]byte, error) {
	parts := make([][]byte, 0, len(l.cmds)+2)
	start, err := zpl.ZPL_COMMANDS.START_FORMAT.RenderBytes(nil)
	if err != nil {
		return nil, err
	}
	parts = append(parts, start)
	for _, c := range l.cmds {
		p, err := c.tpl.RenderBytes(c.values)
		if err != nil {
			return nil, fmt.Errorf("label: render %s: %w", c.tpl.Name(), err)
		}
		parts = append(parts, p)
	}
	end, err := zpl.ZPL_COMMANDS.END_FORMAT.RenderBytes(nil)
	if err != nil {
		return nil, err
	}
	parts = append(parts, end)

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]byte, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

// TextOptions adjust one text field. The zero value draws with the default
// font at the printer's base size in normal orientation.
type TextOptions struct {
	// Font is a built-in font letter (0-9, A-Z). Setting it forces the
	// font command even when the orientation has not changed.
	Font string
	// Orientation is N, R, I or B. Empty means N.
	Orientation string
	// Height and Width are the character cell size in the label's unit.
	// Zero leaves the printer default.
	Height float64
	Width  float64
}

// Text draws a text field at (x, y). The font/orientation command is
// emitted only when the orientation differs from the previous text field,
// or always when an explicit font is given.
func (l *Label) Text(x, y float64, text string, opts TextOptions) error {
	orient := opts.Orientation
	if orient == "" {
		orient = "N"
	}

	if err := l.fieldOrigin(x, y); err != nil {
		return err
	}

	if opts.Font != "" || orient != l.lastOrientation {
		font := opts.Font
		if font == "" {
			font = "0"
		}
		values := zpl.Values{
			"f": zpl.String(font),
			"o": zpl.String(orient),
		}
		if opts.Height > 0 {
			values["h"] = zpl.Int(l.conv.dots(opts.Height))
		}
		if opts.Width > 0 {
			values["w"] = zpl.Int(l.conv.dots(opts.Width))
		}
		if err := l.Append(zpl.ZPL_COMMANDS.FONT, values); err != nil {
			return err
		}
		l.lastOrientation = orient
	}

	if err := l.Append(zpl.ZPL_COMMANDS.FIELD_DATA, zpl.Values{
		"data": zpl.String(text),
	}); err != nil {
		return err
	}
	return l.fieldSeparator()
}

// Box draws a rectangle with its top-left corner at (x, y).
func (l *Label) Box(x, y, w, h, thickness float64) error {
	if err := l.fieldOrigin(x, y); err != nil {
		return err
	}
	if err := l.Append(zpl.ZPL_COMMANDS.GRAPHIC_BOX, zpl.Values{
		"w": zpl.Int(l.conv.dots(w)),
		"h": zpl.Int(l.conv.dots(h)),
		"t": zpl.Int(l.dotsMin1(thickness)),
	}); err != nil {
		return err
	}
	return l.fieldSeparator()
}

// Circle draws a circle of the given diameter with its bounding box at
// (x, y).
func (l *Label) Circle(x, y, diameter, thickness float64) error {
	if err := l.fieldOrigin(x, y); err != nil {
		return err
	}
	if err := l.Append(zpl.ZPL_COMMANDS.GRAPHIC_CIRCLE, zpl.Values{
		"d": zpl.Int(l.conv.dots(diameter)),
		"t": zpl.Int(l.dotsMin1(thickness)),
	}); err != nil {
		return err
	}
	return l.fieldSeparator()
}

// Ellipse draws an ellipse with its bounding box at (x, y).
func (l *Label) Ellipse(x, y, w, h, thickness float64) error {
	if err := l.fieldOrigin(x, y); err != nil {
		return err
	}
	if err := l.Append(zpl.ZPL_COMMANDS.GRAPHIC_ELLIPSE, zpl.Values{
		"w": zpl.Int(l.conv.dots(w)),
		"h": zpl.Int(l.conv.dots(h)),
		"t": zpl.Int(l.dotsMin1(thickness)),
	}); err != nil {
		return err
	}
	return l.fieldSeparator()
}

// Line draws a segment from (x1, y1) to (x2, y2). Horizontal and vertical
// segments render as a box primitive whose short side is the line
// thickness; anything else renders as the diagonal primitive, leaning L
// when dx and dy share a sign, R otherwise.
func (l *Label) Line(x1, y1, x2, y2, thickness float64) error {
	dx1, dy1 := l.conv.dots(x1), l.conv.dots(y1)
	dx2, dy2 := l.conv.dots(x2), l.conv.dots(y2)
	t := l.dotsMin1(thickness)

	ox, oy := min(dx1, dx2), min(dy1, dy2)
	w, h := abs(dx2-dx1), abs(dy2-dy1)

	if err := l.Append(zpl.ZPL_COMMANDS.FIELD_ORIGIN, zpl.Values{
		"x": zpl.Int(ox),
		"y": zpl.Int(oy),
	}); err != nil {
		return err
	}

	if w == 0 || h == 0 {
		if err := l.Append(zpl.ZPL_COMMANDS.GRAPHIC_BOX, zpl.Values{
			"w": zpl.Int(max(w, t)),
			"h": zpl.Int(max(h, t)),
			"t": zpl.Int(t),
		}); err != nil {
			return err
		}
		return l.fieldSeparator()
	}

	lean := "R"
	if (dx2-dx1 > 0) == (dy2-dy1 > 0) {
		lean = "L"
	}
	if err := l.Append(zpl.ZPL_COMMANDS.GRAPHIC_DIAGONAL, zpl.Values{
		"w": zpl.Int(w),
		"h": zpl.Int(h),
		"t": zpl.Int(t),
		"o": zpl.String(lean),
	}); err != nil {
		return err
	}
	return l.fieldSeparator()
}

// QROptions adjust one QR code field.
type QROptions struct {
	// ECC is the error correction level letter (L, M, Q, H). Empty means Q.
	ECC string
	// Auto lets the printer pick the data mode itself instead of
	// classifying the text here.
	Auto bool
}

// QRCode draws a QR code at (x, y), sized so the symbol is at most width
// across: the minimum version that carries the text is looked up in the
// capacity tables and the magnification is the target width divided by
// that version's module count, clamped to 1-10.
func (l *Label) QRCode(x, y, width float64, text string, opts QROptions) error {
	ecc := opts.ECC
	if ecc == "" {
		ecc = string(asset.QRECCQuality)
	}

	// Auto mode skips classification, so size against byte mode, the
	// worst case.
	mode := asset.QRBinary
	if !opts.Auto {
		mode = asset.QRModeFor(text)
	}
	version, err := asset.QRMinVersion(mode, asset.QRECC(ecc[0]), len(text))
	if err != nil {
		return fmt.Errorf("label: qr %q: %w", text, err)
	}
	mag := l.conv.dots(width) / asset.QRPixelDim(version)
	if mag < 1 {
		mag = 1
	}
	if mag > 10 {
		mag = 10
	}

	if err := l.fieldOrigin(x, y); err != nil {
		return err
	}
	if err := l.Append(zpl.ZPL_COMMANDS.QR_BARCODE, zpl.Values{
		"b": zpl.Int(2),
		"c": zpl.Int(mag),
	}); err != nil {
		return err
	}

	// Field data prefix: ECC letter, then A, for printer auto-detection,
	// or M,<mode letter> for a manual mode. Manual byte mode carries a
	// 4-digit character count ahead of the payload.
	data := ecc + "A," + text
	if !opts.Auto {
		if mode == asset.QRBinary {
			data = fmt.Sprintf("%sM,B%04d%s", ecc, len(text), text)
		} else {
			data = ecc + "M," + string(mode) + text
		}
	}
	if err := l.Append(zpl.ZPL_COMMANDS.FIELD_DATA, zpl.Values{
		"data": zpl.String(data),
	}); err != nil {
		return err
	}
	return l.fieldSeparator()
}

// Image recalls a stored object (previously delivered with ~DY) at (x, y).
func (l *Label) Image(x, y float64, drive, name, ext string) error {
	if err := l.fieldOrigin(x, y); err != nil {
		return err
	}
	if err := l.Append(zpl.ZPL_COMMANDS.OBJECT_LOAD, zpl.Values{
		"d": zpl.String(drive),
		"o": zpl.String(name),
		"x": zpl.String(ext),
	}); err != nil {
		return err
	}
	return l.fieldSeparator()
}

// DeleteObject appends a stored-object delete. Name and extension accept
// the * wildcard.
func (l *Label) DeleteObject(drive, name, ext string) error {
	if err := l.Append(zpl.ZPL_COMMANDS.OBJECT_DELETE, zpl.Values{
		"d": zpl.String(drive),
		"o": zpl.String(name),
		"x": zpl.String(ext),
	}); err != nil {
		return err
	}
	return l.fieldSeparator()
}

// SetPrintWidth sets the print width for this format.
func (l *Label) SetPrintWidth(w float64) error {
	return l.Append(zpl.ZPL_COMMANDS.PRINT_WIDTH, zpl.Values{
		"a": zpl.Int(l.conv.dots(w)),
	})
}

// SetPrintRate sets the print speed in inches per second.
func (l *Label) SetPrintRate(speed int) error {
	return l.Append(zpl.ZPL_COMMANDS.PRINT_RATE, zpl.Values{
		"p": zpl.Int(speed),
	})
}

// SetMirror mirrors the printed image across its vertical axis.
func (l *Label) SetMirror(on bool) error {
	return l.Append(zpl.ZPL_COMMANDS.PRINT_MIRROR, zpl.Values{
		"a": zpl.Bool(on),
	})
}

// SetReverse prints all fields white on black.
func (l *Label) SetReverse(on bool) error {
	return l.Append(zpl.ZPL_COMMANDS.LABEL_REVERSE, zpl.Values{
		"a": zpl.Bool(on),
	})
}

func (l *Label) fieldOrigin(x, y float64) error {
	return l.Append(zpl.ZPL_COMMANDS.FIELD_ORIGIN, zpl.Values{
		"x": zpl.Int(l.conv.dots(x)),
		"y": zpl.Int(l.conv.dots(y)),
	})
}

func (l *Label) fieldSeparator() error {
	return l.Append(zpl.ZPL_COMMANDS.FIELD_SEPARATOR, nil)
}

// dotsMin1 converts a thickness, never below one dot.
func (l *Label) dotsMin1(v float64) int {
	d := l.conv.dots(v)
	if d < 1 {
		return 1
	}
	return d
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
