package domain

type CursorStyle string

const (
	CursorArrow     CursorStyle = "arrow"
	CursorHand      CursorStyle = "hand"
	CursorCrosshair CursorStyle = "crosshair"
	CursorPointer   CursorStyle = "pointer"
)

const DefaultCursorColor = "#FF0000"

// CursorConfig is how a participant's pointer is drawn on other screens.
type CursorConfig struct {
	Style CursorStyle `json:"style" validate:"required,oneof=arrow hand crosshair pointer"`
	Color string      `json:"color" validate:"required,max=32"`
}

func DefaultCursor() CursorConfig {
	return CursorConfig{Style: CursorArrow, Color: DefaultCursorColor}
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
