package game

import "encoding/json"

// Game is implemented by every engine the server can host. Engines persist
// and broadcast through their JSON form.
type Game interface {
	Type() string
	json.Marshaler
}
