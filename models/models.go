// Package models holds what the collaborator model packages share.
package models

import "errors"

// ErrUnknownModel is wrapped by every model selector given a name it does not know
var ErrUnknownModel = errors.New("unknown model")
