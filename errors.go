package carbon

import "errors"

// Sentinel errors, grouped by the kind taxonomy of spec.md §7. Grounded on
// the flat `var (Err... = errors.New(...))` block in helper.go; callers
// wrap these with fmt.Errorf("...: %w", err) to retain errors.Is.
var (
	// Invariant violations.
	ErrNilPointer       = errors.New("carbon: nil pointer")
	ErrOutOfBounds      = errors.New("carbon: index out of bounds")
	ErrIndexCorrupted   = errors.New("carbon: index corrupted")
	ErrTypeMismatch     = errors.New("carbon: type mismatch")
	ErrNotIndexed       = errors.New("carbon: not indexed")

	// Format errors.
	ErrBadMagic       = errors.New("carbon: bad magic")
	ErrVersionMismatch = errors.New("carbon: version mismatch")
	ErrCorruptPayload = errors.New("carbon: corrupted payload")
	ErrUnknownMarker  = errors.New("carbon: unknown marker")
	ErrNoCarbonStream = errors.New("carbon: not a carbon stream")

	// I/O errors.
	ErrOpenFailed  = errors.New("carbon: open failed")
	ErrReadFailed  = errors.New("carbon: read failed")
	ErrWriteFailed = errors.New("carbon: write failed")
	ErrSeekFailed  = errors.New("carbon: seek failed")

	// Resource errors.
	ErrAllocFailed = errors.New("carbon: allocation failed")

	// Programmer errors.
	ErrIllegalArgument    = errors.New("carbon: illegal argument")
	ErrIllegalState       = errors.New("carbon: illegal state")
	ErrUnsupportedType    = errors.New("carbon: unsupported type")
	ErrUnsupportedArray   = errors.New("carbon: unsupported container")
	ErrNotImplemented     = errors.New("carbon: not implemented")
	ErrMixedTypeArray     = errors.New("carbon: array of mixed types")
	ErrArrayOfArrays      = errors.New("carbon: array of arrays not supported")
	ErrInsertTooDangerous = errors.New("carbon: insert too dangerous")

	// Parse errors.
	ErrJSONParse     = errors.New("carbon: json parse error")
	ErrUnknownToken  = errors.New("carbon: unknown token")
	ErrDotPathParse  = errors.New("carbon: dot-path parse error")
	ErrNumberParse   = errors.New("carbon: number parse error")
	ErrTailingJunk   = errors.New("carbon: tailing junk after document")

	// Policy errors.
	ErrWriteProtected     = errors.New("carbon: archive is read-only")
	ErrIllegalOperation   = errors.New("carbon: illegal operation")
	ErrPredicateEvalFailed = errors.New("carbon: predicate evaluation failed")

	// Conditional errors.
	ErrNotFound    = errors.New("carbon: not found")
	ErrNil         = errors.New("carbon: nil value")
	ErrStackUnder  = errors.New("carbon: stack underflow")
	ErrStackOver   = errors.New("carbon: stack overflow")
	ErrOutOfDate   = errors.New("carbon: stale revision")
	ErrNoHuffmanCode = errors.New("no huffman code table entry found")
)
