package structures

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType reports a structure type name that is not in the table.
var ErrUnknownType = errors.New("structures: unknown type")

// Type enumerates the closed set of structure kinds.
type Type uint8

const (
	Water Type = iota
	Ore
	Pump
	Irrigation
	typeCount
)

// Traits holds the per-type behaviour. Everything a structure does that
// depends on its kind is looked up here.
type Traits struct {
	Name string

	// DamageRadius is the reach of ambient blight in world units. Zero
	// means the type is immune.
	DamageRadius float64
	// CleanRadius is the reach of the cleaning effect while powered.
	CleanRadius float64

	CanBePowered   bool
	InitialPowered bool
	// Source types root the power graph while they hold a positive amount.
	Source bool

	HasAmount     bool
	InitialAmount int
}

var traits = [typeCount]Traits{
	Water: {
		Name:          "water",
		Source:        true,
		HasAmount:     true,
		InitialAmount: 50,
	},
	Ore: {
		Name:          "ore",
		HasAmount:     true,
		InitialAmount: 20,
	},
	Pump: {
		Name:         "pump",
		DamageRadius: 5,
		CleanRadius:  6,
		CanBePowered: true,
	},
	Irrigation: {
		Name:         "irrigation",
		DamageRadius: 5,
		CleanRadius:  10,
		CanBePowered: true,
	},
}

// Types lists every structure type in table order.
func Types() []Type {
	return []Type{Water, Ore, Pump, Irrigation}
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool { return t < typeCount }

// Traits returns the table row for t. It panics on an unknown type.
func (t Type) Traits() Traits {
	if !t.Valid() {
		panic(fmt.Sprintf("structures: no traits for type %d", t))
	}
	return traits[t]
}

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("type(%d)", t)
	}
	return traits[t].Name
}

// DamageRadius is shorthand for t.Traits().DamageRadius.
func (t Type) DamageRadius() float64 { return t.Traits().DamageRadius }

// CleanRadius is shorthand for t.Traits().CleanRadius.
func (t Type) CleanRadius() float64 { return t.Traits().CleanRadius }

// CanBePowered is shorthand for t.Traits().CanBePowered.
func (t Type) CanBePowered() bool { return t.Traits().CanBePowered }

// HasAmount is shorthand for t.Traits().HasAmount.
func (t Type) HasAmount() bool { return t.Traits().HasAmount }

// ParseType resolves a type name, ignoring case and surrounding spaces.
func ParseType(name string) (Type, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, tr := range traits {
		if tr.Name == name {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
}
