package domain

import "time"

const (
	MinConvictionValue = -100.0
	MaxConvictionValue = 100.0
	// MinConvictionWeight evita convicciones de peso cero para usuarios con credibilidad casi nula.
	MinConvictionWeight = 0.1
)

// Conviction es la opinion ponderada de un usuario sobre una senal.
// Weight se congela al momento de la escritura y no sigue a la credibilidad.
type Conviction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SignalID  string    `json:"signal_id"`
	Value     float64   `json:"value"`
	Weight    float64   `json:"weight"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConvictionWeight deriva el peso de una conviccion a partir de la credibilidad del autor.
func ConvictionWeight(credibilityScore float64) float64 {
	w := credibilityScore / 100
	if w < MinConvictionWeight {
		return MinConvictionWeight
	}
	return w
}

// ValidConvictionValue indica si value esta dentro de [-100, 100].
func ValidConvictionValue(value float64) bool {
	return value >= MinConvictionValue && value <= MaxConvictionValue
}
