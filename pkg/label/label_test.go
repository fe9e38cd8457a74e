// pkg/label/label_test.go
package label

import (
	"strings"
	"testing"
)

func TestNewRequiresDPIForNonDotUnits(t *testing.T) {
	if _, err := New(UnitInches, 0); err == nil {
		t.Error("inches without a dpi must fail construction")
	}
	if _, err := New(UnitDIP, 0); err == nil {
		t.Error("dip without a dpi must fail construction")
	}
	if _, err := New(UnitDots, 0); err != nil {
		t.Errorf("raw dots need no dpi, got %v", err)
	}
	if _, err := New("furlongs", 203); err == nil {
		t.Error("unknown unit must fail construction")
	}
}

func TestEmptyLabelRendersBareFormat(t *testing.T) {
	l, err := New(UnitDots, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	got, err := l.RenderString()
	if err != nil {
		t.Fatalf("RenderString failed: %v", err)
	}
	if got != "^XA^XZ" {
		t.Errorf("empty label must render exactly ^XA^XZ, got %q", got)
	}

	b, err := l.RenderBytes()
	if err != nil {
		t.Fatalf("RenderBytes failed: %v", err)
	}
	if string(b) != "^XA^XZ" {
		t.Errorf("byte render must agree, got %q", string(b))
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	l, _ := New(UnitDots, 0)
	if err := l.Text(10, 20, "HELLO", TextOptions{}); err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	first, err := l.RenderString()
	if err != nil {
		t.Fatalf("RenderString failed: %v", err)
	}
	second, err := l.RenderString()
	if err != nil {
		t.Fatalf("second RenderString failed: %v", err)
	}
	if first != second {
		t.Errorf("render is not idempotent: %q then %q", first, second)
	}
}

func TestTextOrientationSuppression(t *testing.T) {
	l, _ := New(UnitDots, 0)
	if err := l.Text(0, 0, "ONE", TextOptions{Orientation: "R"}); err != nil {
		t.Fatalf("first Text failed: %v", err)
	}
	if err := l.Text(0, 40, "TWO", TextOptions{Orientation: "R"}); err != nil {
		t.Fatalf("second Text failed: %v", err)
	}
	if err := l.Text(0, 80, "THREE", TextOptions{Orientation: "N"}); err != nil {
		t.Fatalf("third Text failed: %v", err)
	}

	got, err := l.RenderString()
	if err != nil {
		t.Fatalf("RenderString failed: %v", err)
	}
	if n := strings.Count(got, "^A"); n != 2 {
		t.Errorf("expected 2 font commands (repeat orientation suppressed), got %d in %q", n, got)
	}
}

func TestTextExplicitFontAlwaysEmits(t *testing.T) {
	l, _ := New(UnitDots, 0)
	if err := l.Text(0, 0, "ONE", TextOptions{Font: "B"}); err != nil {
		t.Fatalf("first Text failed: %v", err)
	}
	// Same orientation, but the explicit font must force the command.
	if err := l.Text(0, 40, "TWO", TextOptions{Font: "B"}); err != nil {
		t.Fatalf("second Text failed: %v", err)
	}

	got, err := l.RenderString()
	if err != nil {
		t.Fatalf("RenderString failed: %v", err)
	}
	if n := strings.Count(got, "^AB"); n != 2 {
		t.Errorf("expected 2 explicit font commands, got %d in %q", n, got)
	}
}

func TestLineGeometry(t *testing.T) {
	tests := []struct {
		name           string
		x1, y1, x2, y2 float64
		contains       string
	}{
		{"horizontal renders as box", 0, 50, 100, 50, "^GB100,2,2"},
		{"vertical renders as box", 30, 0, 30, 80, "^GB2,80,2"},
		{"down-right leans left", 0, 0, 100, 50, "^GD100,50,2,,L"},
		{"up-right leans right", 0, 50, 100, 0, "^GD100,50,2,,R"},
		{"down-left leans right", 100, 0, 0, 50, "^GD100,50,2,,R"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := New(UnitDots, 0)
			if err := l.Line(tt.x1, tt.y1, tt.x2, tt.y2, 2); err != nil {
				t.Fatalf("Line failed: %v", err)
			}
			got, err := l.RenderString()
			if err != nil {
				t.Fatalf("RenderString failed: %v", err)
			}
			if !strings.Contains(got, tt.contains) {
				t.Errorf("expected %q in %q", tt.contains, got)
			}
		})
	}
}

func TestLineOriginIsMinCorner(t *testing.T) {
	l, _ := New(UnitDots, 0)
	if err := l.Line(100, 80, 20, 10, 1); err != nil {
		t.Fatalf("Line failed: %v", err)
	}
	got, err := l.RenderString()
	if err != nil {
		t.Fatalf("RenderString failed: %v", err)
	}
	if !strings.Contains(got, "^FO20,10") {
		t.Errorf("expected origin at the min corner in %q", got)
	}
}

func TestQRCodeNumericSizing(t *testing.T) {
	l, _ := New(UnitDots, 0)
	if err := l.QRCode(10, 10, 100, "123456", QROptions{}); err != nil {
		t.Fatalf("QRCode failed: %v", err)
	}
	got, err := l.RenderString()
	if err != nil {
		t.Fatalf("RenderString failed: %v", err)
	}
	// "123456" is numeric mode at the default ECC Q; version 1 holds 27
	// numeric characters at Q, its symbol is 21 modules, 100/21 -> mag 4.
	if !strings.Contains(got, "^BQ,2,4") {
		t.Errorf("expected ^BQ,2,4 in %q", got)
	}
	if !strings.Contains(got, "^FDQM,N123456") {
		t.Errorf("expected manual numeric-mode field data in %q", got)
	}
}

func TestQRCodeByteModeCount(t *testing.T) {
	l, _ := New(UnitDots, 0)
	// Lowercase falls outside the QR alphanumeric charset, forcing byte
	// mode, whose field data carries a 4-digit character count after B.
	if err := l.QRCode(0, 0, 100, "hello printer!", QROptions{}); err != nil {
		t.Fatalf("QRCode failed: %v", err)
	}
	got, err := l.RenderString()
	if err != nil {
		t.Fatalf("RenderString failed: %v", err)
	}
	if !strings.Contains(got, "^FDQM,B0014hello printer!") {
		t.Errorf("expected counted byte-mode field data in %q", got)
	}
}

func TestQRCodeAutoMode(t *testing.T) {
	l, _ := New(UnitDots, 0)
	if err := l.QRCode(0, 0, 84, "123456", QROptions{ECC: "H", Auto: true}); err != nil {
		t.Fatalf("QRCode failed: %v", err)
	}
	got, err := l.RenderString()
	if err != nil {
		t.Fatalf("RenderString failed: %v", err)
	}
	if !strings.Contains(got, "^FDHA,123456") {
		t.Errorf("auto mode must defer detection to the printer, got %q", got)
	}
}

func TestQRCodeMagnificationClamp(t *testing.T) {
	l, _ := New(UnitDots, 0)
	// 500 dots over a 21-module symbol would be mag 23; the grammar caps
	// at 10.
	if err := l.QRCode(0, 0, 500, "1", QROptions{}); err != nil {
		t.Fatalf("QRCode failed: %v", err)
	}
	got, err := l.RenderString()
	if err != nil {
		t.Fatalf("RenderString failed: %v", err)
	}
	if !strings.Contains(got, "^BQ,2,10") {
		t.Errorf("expected magnification capped at 10 in %q", got)
	}
}

func TestUnitConversion(t *testing.T) {
	l, err := New(UnitInches, 203)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := l.Box(1, 0.5, 2, 1, 0.01); err != nil {
		t.Fatalf("Box failed: %v", err)
	}
	got, err := l.RenderString()
	if err != nil {
		t.Fatalf("RenderString failed: %v", err)
	}
	if !strings.Contains(got, "^FO203,102") {
		t.Errorf("expected inch origin converted at 203 dpi in %q", got)
	}
	if !strings.Contains(got, "^GB406,203,2") {
		t.Errorf("expected inch dimensions converted at 203 dpi in %q", got)
	}
}

func TestDIPConversion(t *testing.T) {
	l, err := New(UnitDIP, 192)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := l.Box(96, 48, 96, 96, 1); err != nil {
		t.Fatalf("Box failed: %v", err)
	}
	got, err := l.RenderString()
	if err != nil {
		t.Fatalf("RenderString failed: %v", err)
	}
	// 96 dip is one inch, so 192 dots at 192 dpi.
	if !strings.Contains(got, "^FO192,96") {
		t.Errorf("expected dip origin converted at 192 dpi in %q", got)
	}
}

func TestImageRecallAndDelete(t *testing.T) {
	l, _ := New(UnitDots, 0)
	if err := l.Image(40, 40, "R", "LOGO", "PNG"); err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if err := l.DeleteObject("R", "OLD", "GRF"); err != nil {
		t.Fatalf("DeleteObject failed: %v", err)
	}
	got, err := l.RenderString()
	if err != nil {
		t.Fatalf("RenderString failed: %v", err)
	}
	if !strings.Contains(got, "^ILR:LOGO.PNG") {
		t.Errorf("expected object load in %q", got)
	}
	if !strings.Contains(got, "^IDR:OLD.GRF") {
		t.Errorf("expected object delete in %q", got)
	}
}

func TestSetupCommands(t *testing.T) {
	l, _ := New(UnitDots, 0)
	if err := l.SetPrintWidth(812); err != nil {
		t.Fatalf("SetPrintWidth failed: %v", err)
	}
	if err := l.SetPrintRate(4); err != nil {
		t.Fatalf("SetPrintRate failed: %v", err)
	}
	if err := l.SetMirror(false); err != nil {
		t.Fatalf("SetMirror failed: %v", err)
	}
	if err := l.SetReverse(true); err != nil {
		t.Fatalf("SetReverse failed: %v", err)
	}
	got, err := l.RenderString()
	if err != nil {
		t.Fatalf("RenderString failed: %v", err)
	}
	for _, want := range []string{"^PW812", "^PR4", "^PMN", "^LRY"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
}

func TestAppendRejectsInvalidValues(t *testing.T) {
	l, _ := New(UnitDots, 0)
	// A negative coordinate fails the ^FO range check at append time.
	if err := l.Text(-5, 0, "X", TextOptions{}); err == nil {
		t.Error("invalid coordinates must be rejected at append time")
	}
}
