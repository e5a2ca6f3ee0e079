package console

import "github.com/wricardo/vector-race/game/geom"

// keypad lays the accelerations out like a numeric keypad, so 8 speeds up
// northwards and 5 keeps the current velocity.
var keypad = map[rune]geom.Vector{
	'7': geom.Vec(-1, 1), '8': geom.Vec(0, 1), '9': geom.Vec(1, 1),
	'4': geom.Vec(-1, 0), '5': geom.Vec(0, 0), '6': geom.Vec(1, 0),
	'1': geom.Vec(-1, -1), '2': geom.Vec(0, -1), '3': geom.Vec(1, -1),
}

// DeltaFor returns the acceleration bound to key.
func DeltaFor(key rune) (geom.Vector, bool) {
	d, ok := keypad[key]
	return d, ok
}

// KeyFor returns the key bound to the acceleration d.
func KeyFor(d geom.Vector) (rune, bool) {
	for k, v := range keypad {
		if v == d {
			return k, true
		}
	}
	return 0, false
}
