// Package errs defines the sentinel errors shared across dshade packages.
//
// Callers are expected to match these with errors.Is; packages wrap them with
// fmt.Errorf("...: %w", ...) to add context without hiding the sentinel.
package errs

import "errors"

// Canvas and geometry errors.
var (
	// ErrInvalidCanvasSize indicates a canvas width or height <= 0.
	ErrInvalidCanvasSize = errors.New("invalid canvas size")
	// ErrInvalidRange indicates a range whose bounds are not finite or not increasing.
	ErrInvalidRange = errors.New("invalid range")
	// ErrLogRangeNotPositive indicates a log axis over a range that is not strictly positive.
	ErrLogRangeNotPositive = errors.New("log axis range must be positive")
	// ErrUnknownInterpMethod indicates a regrid call with an unrecognized interpolation method.
	ErrUnknownInterpMethod = errors.New("unknown interpolation method")
)

// Aggregation errors.
var (
	// ErrGridSizeMismatch indicates an operation across grids of different dimensions.
	ErrGridSizeMismatch = errors.New("grid size mismatch")
	// ErrGridRangeMismatch indicates an operation across grids computed over different ranges.
	ErrGridRangeMismatch = errors.New("grid range mismatch")
	// ErrCategoryMismatch indicates partial grids whose category tables diverge.
	ErrCategoryMismatch = errors.New("category table mismatch")
	// ErrTooManyCategories indicates a categorical column exceeding the category limit.
	ErrTooManyCategories = errors.New("too many categories")
	// ErrMissingColumn indicates a reduction referencing a column the source does not provide.
	ErrMissingColumn = errors.New("missing column")
	// ErrNotCategorical indicates a scalar grid where a categorical one is required.
	ErrNotCategorical = errors.New("grid is not categorical")
	// ErrReductionMismatch indicates an attempt to merge states produced by different reductions.
	ErrReductionMismatch = errors.New("reduction state mismatch")
)

// Shading errors.
var (
	// ErrEmptyColormap indicates a colormap built from zero colors.
	ErrEmptyColormap = errors.New("colormap has no colors")
	// ErrInvalidSpan indicates a shading span whose bounds are not increasing.
	ErrInvalidSpan = errors.New("invalid shading span")
	// ErrInvalidColorKey indicates a categorical color key shorter than the category table.
	ErrInvalidColorKey = errors.New("color key does not cover categories")
	// ErrInvalidSpreadPx indicates a negative spread radius.
	ErrInvalidSpreadPx = errors.New("spread radius must not be negative")
	// ErrImageSizeMismatch indicates stacked images of different dimensions.
	ErrImageSizeMismatch = errors.New("image size mismatch")
)

// Grid file errors.
var (
	// ErrInvalidMagicNumber indicates data that does not start with the gridfile magic.
	ErrInvalidMagicNumber = errors.New("invalid magic number")
	// ErrInvalidHeaderSize indicates a buffer too small to hold a gridfile header.
	ErrInvalidHeaderSize = errors.New("invalid header size")
	// ErrUnsupportedVersion indicates a gridfile written by a newer format revision.
	ErrUnsupportedVersion = errors.New("unsupported gridfile version")
	// ErrInvalidHeaderFlags indicates a header flag word with unknown bits set.
	ErrInvalidHeaderFlags = errors.New("invalid header flags")
	// ErrChecksumMismatch indicates payload bytes that do not match the stored checksum.
	ErrChecksumMismatch = errors.New("payload checksum mismatch")
	// ErrPayloadTruncated indicates a payload shorter than the header promises.
	ErrPayloadTruncated = errors.New("payload truncated")
	// ErrPayloadSizeMismatch indicates a decoded payload whose length does not match the grid dimensions.
	ErrPayloadSizeMismatch = errors.New("payload size mismatch")
	// ErrInvalidCategorySection indicates a malformed category name section.
	ErrInvalidCategorySection = errors.New("invalid category section")
)

// Source errors.
var (
	// ErrColumnLengthMismatch indicates table columns of unequal length.
	ErrColumnLengthMismatch = errors.New("column length mismatch")
	// ErrDuplicateColumn indicates a column name added twice to a table.
	ErrDuplicateColumn = errors.New("duplicate column")
	// ErrDuplicateCategory indicates the same category name listed twice when seeding a dictionary.
	ErrDuplicateCategory = errors.New("duplicate category")
	// ErrNoRows indicates an operation that needs at least one row.
	ErrNoRows = errors.New("source has no rows")
)
