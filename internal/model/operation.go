package model

import (
	"errors"
	"fmt"
)

// OpType discriminates the two operation variants
type OpType string

const (
	OpTypeStroke OpType = "stroke"
	OpTypeShape  OpType = "shape"
)

func (t OpType) String() string {
	return string(t)
}

// ShapeType supported shape kinds
type ShapeType string

const (
	ShapeLine   ShapeType = "line"
	ShapeRect   ShapeType = "rect"
	ShapeCircle ShapeType = "circle"
)

func (s ShapeType) String() string {
	return string(s)
}

// Point canvas coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// User room member as supplied by the client at join time
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Operation one committed drawing action. Immutable once committed.
// The Type tag selects the variant: stroke ops carry Points, shape ops
// carry ShapeType/Start/End. Color is nil for eraser strokes
// (destination-out carries no color).
type Operation struct {
	ID        string    `json:"id"`
	Type      OpType    `json:"type"`
	UserID    string    `json:"userId"`
	Color     *string   `json:"color"`
	Width     float64   `json:"width"`
	Eraser    bool      `json:"eraser,omitempty"`
	Points    []Point   `json:"points,omitempty"`
	ShapeType ShapeType `json:"shapeType,omitempty"`
	Start     *Point    `json:"start,omitempty"`
	End       *Point    `json:"end,omitempty"`
}

var (
	ErrUnknownOpType   = errors.New("unknown operation type")
	ErrNoPoints        = errors.New("stroke operation has no points")
	ErrMissingEndpoint = errors.New("shape operation missing start or end point")
	ErrBadWidth        = errors.New("operation width must be positive")
)

// Validate checks the operation against its variant schema. Called at
// the commit boundary; an invalid op never enters the room log.
func (op *Operation) Validate() error {
	if op.Width <= 0 {
		return ErrBadWidth
	}

	switch op.Type {
	case OpTypeStroke:
		if len(op.Points) == 0 {
			return ErrNoPoints
		}
	case OpTypeShape:
		switch op.ShapeType {
		case ShapeLine, ShapeRect, ShapeCircle:
		default:
			return fmt.Errorf("invalid shape type %q", op.ShapeType)
		}
		if op.Start == nil || op.End == nil {
			return ErrMissingEndpoint
		}
	default:
		return ErrUnknownOpType
	}

	return nil
}

// BoardState replay-ready history sent to a newly joined connection
type BoardState struct {
	OpLog []Operation `json:"opLog"`
}
