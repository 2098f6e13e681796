package service

import "errors"

// errMalformedVerdict marks completions that cannot be parsed into a valid
// verdict. It is never retried: the same prompt is overwhelmingly likely to
// yield the same malformed answer, and each attempt costs tokens.
var errMalformedVerdict = errors.New("malformed verdict")
