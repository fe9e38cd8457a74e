// pkg/zpl/commands.go
package zpl

// Shared field types for the command table below. Patterns follow the ZPL II
// manual's syntax lines, so the parameter keys are the manual's own letters.
var (
	coord      = mustType(NewIntRange(0, 32000))  // dots from the label home position
	dimension  = mustType(NewIntRange(1, 32000))  // graphic width/height in dots
	thickness  = mustType(NewIntRange(1, 32000))  // border/line thickness in dots
	smallDim   = mustType(NewIntRange(3, 4095))   // circle/ellipse axis in dots
	fontSize   = mustType(NewIntRange(10, 32000)) // character height/width in dots
	rounding   = mustType(NewIntRange(0, 8))      // box corner rounding degree
	qrModel    = mustType(NewIntRange(1, 2))      // QR model, 2 is the modern one
	qrMag      = mustType(NewIntRange(1, 10))     // QR magnification factor
	byteCount  = mustType(NewIntRange(1, 99999999))
	objectName = mustType(NewAlnum(1, 8)) // printer object names: 1-8 alphanumerics
	fontName   = mustType(NewAlnum(1, 1)) // built-in fonts are named 0-9, A-Z

	lineColor   = NewEnum("B", "W")             // black, white
	orientation = NewEnum("N", "R", "I", "B")   // normal, rotated, inverted, bottom-up
	diagonal    = NewEnum("R", "L")             // right-leaning (/), left-leaning (\)
	drive       = NewEnum("R", "E", "B", "A")   // RAM, flash, memory card, USB
	objFormat   = NewEnum("A", "B", "C", "P")   // ascii hex, binary, AR-compressed, PNG
	objExt      = NewEnum("B", "E", "G", "P", "T", "X")
	delExt      = NewEnum("GRF", "PNG", "TTF", "TTE", "BMP", "PCX", "*")
	printSpeed  = NewAnyOf(mustType(NewIntRange(1, 14)), NewEnum("A", "B", "C", "D", "E"))

	fieldText = NewAnyOf(NewText(0), NewBinary())
	objData   = NewAnyOf(NewBinary(), mustType(NewAlnum(0, 0))) // raw bytes or hex text
	wildName  = NewAnyOf(objectName, NewEnum("*"))
)

// ZPL_COMMANDS contains the ZPL command templates the builder and the asset
// pipeline draw from. Definitions are fixed and shared; a bad definition
// panics at init.
var ZPL_COMMANDS = struct {
	// Format brackets
	START_FORMAT *Template
	END_FORMAT   *Template

	// Field structure
	FIELD_ORIGIN    *Template
	FIELD_DATA      *Template
	FIELD_SEPARATOR *Template
	FONT            *Template

	// Graphic primitives
	GRAPHIC_BOX      *Template
	GRAPHIC_CIRCLE   *Template
	GRAPHIC_ELLIPSE  *Template
	GRAPHIC_DIAGONAL *Template

	// Barcodes
	QR_BARCODE *Template

	// Stored objects
	DOWNLOAD_OBJECT *Template
	OBJECT_LOAD     *Template
	OBJECT_DELETE   *Template

	// Printer setup
	PRINT_WIDTH   *Template
	PRINT_RATE    *Template
	PRINT_MIRROR  *Template
	LABEL_REVERSE *Template
}{
	// Format brackets
	START_FORMAT: MustTemplate("^XA", "^XA", nil),
	END_FORMAT:   MustTemplate("^XZ", "^XZ", nil),

	// ^FOx,y - field origin relative to label home
	FIELD_ORIGIN: MustTemplate("^FO", "^FOx,y", map[string]Field{
		"x": {Type: coord, Required: true},
		"y": {Type: coord, Required: true},
	}),
	// ^FDdata - field data; byte payloads are spliced verbatim
	FIELD_DATA: MustTemplate("^FD", "^FDdata", map[string]Field{
		"data": {Type: fieldText, Required: true},
	}),
	// ^FS - field separator
	FIELD_SEPARATOR: MustTemplate("^FS", "^FS", nil),
	// ^Afo,h,w - font name, orientation, height, width
	FONT: MustTemplate("^A", "^Afo,h,w", map[string]Field{
		"f": {Type: fontName, Required: true},
		"o": {Type: orientation},
		"h": {Type: fontSize},
		"w": {Type: fontSize},
	}),

	// ^GBw,h,t,c,r - box/line: width, height, border thickness, color, rounding
	GRAPHIC_BOX: MustTemplate("^GB", "^GBw,h,t,c,r", map[string]Field{
		"w": {Type: dimension, Required: true},
		"h": {Type: dimension, Required: true},
		"t": {Type: thickness},
		"c": {Type: lineColor},
		"r": {Type: rounding},
	}),
	// ^GCd,t,c - circle: diameter, border thickness, color
	GRAPHIC_CIRCLE: MustTemplate("^GC", "^GCd,t,c", map[string]Field{
		"d": {Type: smallDim, Required: true},
		"t": {Type: thickness},
		"c": {Type: lineColor},
	}),
	// ^GEw,h,t,c - ellipse: width, height, border thickness, color
	GRAPHIC_ELLIPSE: MustTemplate("^GE", "^GEw,h,t,c", map[string]Field{
		"w": {Type: smallDim, Required: true},
		"h": {Type: smallDim, Required: true},
		"t": {Type: thickness},
		"c": {Type: lineColor},
	}),
	// ^GDw,h,t,c,o - diagonal line: width, height, thickness, color, lean
	GRAPHIC_DIAGONAL: MustTemplate("^GD", "^GDw,h,t,c,o", map[string]Field{
		"w": {Type: dimension, Required: true},
		"h": {Type: dimension, Required: true},
		"t": {Type: thickness},
		"c": {Type: lineColor},
		"o": {Type: diagonal},
	}),

	// ^BQa,b,c - QR barcode: orientation, model, magnification
	QR_BARCODE: MustTemplate("^BQ", "^BQa,b,c", map[string]Field{
		"a": {Type: NewEnum("N")},
		"b": {Type: qrModel, Required: true},
		"c": {Type: qrMag, Required: true},
	}),

	// ~DYd:f,b,x,t,w,data - download object: drive, name, format, extension,
	// total bytes, bytes per row, payload. w is left empty for PNG and font
	// downloads, where the printer ignores it.
	DOWNLOAD_OBJECT: MustTemplate("~DY", "~DYd:f,b,x,t,w,data", map[string]Field{
		"d":    {Type: drive, Required: true},
		"f":    {Type: objectName, Required: true},
		"b":    {Type: objFormat, Required: true},
		"x":    {Type: objExt, Required: true},
		"t":    {Type: byteCount, Required: true},
		"w":    {Type: byteCount},
		"data": {Type: objData, Required: true},
	}),
	// ^ILd:o.x - load a stored image at the current position
	OBJECT_LOAD: MustTemplate("^IL", "^ILd:o.x", map[string]Field{
		"d": {Type: drive, Required: true},
		"o": {Type: objectName, Required: true},
		"x": {Type: NewEnum("GRF", "PNG"), Required: true},
	}),
	// ^IDd:o.x - delete a stored object; name and extension accept *
	OBJECT_DELETE: MustTemplate("^ID", "^IDd:o.x", map[string]Field{
		"d": {Type: drive, Required: true},
		"o": {Type: wildName, Required: true},
		"x": {Type: delExt, Required: true},
	}),

	// ^PWa - print width in dots
	PRINT_WIDTH: MustTemplate("^PW", "^PWa", map[string]Field{
		"a": {Type: mustType(NewIntRange(2, 32000)), Required: true},
	}),
	// ^PRp,s,b - print, slew and backfeed speed
	PRINT_RATE: MustTemplate("^PR", "^PRp,s,b", map[string]Field{
		"p": {Type: printSpeed, Required: true},
		"s": {Type: printSpeed},
		"b": {Type: printSpeed},
	}),
	// ^PMa - mirror the label image across its vertical axis
	PRINT_MIRROR: MustTemplate("^PM", "^PMa", map[string]Field{
		"a": {Type: NewYesNo("Y", "N"), Required: true},
	}),
	// ^LRa - reverse print (white on black) for all fields
	LABEL_REVERSE: MustTemplate("^LR", "^LRa", map[string]Field{
		"a": {Type: NewYesNo("Y", "N"), Required: true},
	}),
}

func mustType(t Type, err error) Type {
	if err != nil {
		panic(err)
	}
	return t
}
