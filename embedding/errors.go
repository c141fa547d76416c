package embedding

import "errors"

// ErrNoEmbedding is returned when a provider produced no vector for a text.
var ErrNoEmbedding = errors.New("no embedding generated")
