package markcodec

import "errors"

// ErrLengthMismatch reports a mark string whose length differs from its dance's judge letters.
var ErrLengthMismatch = errors.New("mark string length does not match judge letters")
