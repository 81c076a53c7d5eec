package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	stderrors "errors" // Standard errors package

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/mcncl/jsonclassgen/internal/errors" // Custom errors package
	"github.com/mcncl/jsonclassgen/internal/models"
)

// Options controls how an input stream is split into documents.
type Options struct {
	// AllowMultiple accepts several concatenated top-level values (for
	// example newline-delimited JSON). Each becomes its own document.
	AllowMultiple bool
	// Source names the input in errors and documents.
	Source string
}

// Parse converts a single JSON document from an io.Reader into an IntermediateRepresentation
func Parse(reader io.Reader) (models.IntermediateRepresentation, error) {
	return ParseWithOptions(reader, Options{})
}

// ParseWithOptions reads all documents from reader.
func ParseWithOptions(reader io.Reader, opts Options) (models.IntermediateRepresentation, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return models.IntermediateRepresentation{}, errors.NewInputError("failed to read input", err)
	}
	return parseBytes(data, opts)
}

func parseBytes(data []byte, opts Options) (models.IntermediateRepresentation, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.IntermediateRepresentation{}, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
	}

	// The token API does not check separators, so the whole stream is
	// validated before any value is built.
	count, err := validate(data, opts)
	if err != nil {
		return models.IntermediateRepresentation{}, err
	}

	docs, err := build(data, count, opts.Source)
	if err != nil {
		return models.IntermediateRepresentation{}, err
	}

	ir := models.IntermediateRepresentation{Documents: docs, RootIsArray: true}
	for _, doc := range docs {
		if _, ok := doc.Value.(models.JSONArray); !ok {
			ir.RootIsArray = false
			break
		}
	}

	slog.Debug("parsed input", "source", opts.Source, "documents", len(docs), "root_is_array", ir.RootIsArray)
	return ir, nil
}

// validate decodes every top-level value and returns how many there are.
func validate(data []byte, opts Options) (int, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	for i := 0; ; i++ {
		var value interface{}
		err := decoder.Decode(&value)
		if stderrors.Is(err, io.EOF) {
			return i, nil
		}
		if err != nil {
			offset := decoder.InputOffset()
			var syntaxError *json.SyntaxError
			if stderrors.As(err, &syntaxError) && syntaxError.Offset > 0 {
				offset = syntaxError.Offset
			}
			return 0, newParseError(data, opts.Source, i, offset, err)
		}
		if i == 1 && !opts.AllowMultiple {
			return 0, errors.NewParsingError("multiple JSON values found at the root", errors.ErrMultipleJSON)
		}
	}
}

func newParseError(data []byte, source string, document int, offset int64, cause error) *errors.ParseError {
	if offset < 0 {
		offset = 0
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, column := 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			column = 1
			continue
		}
		column++
	}
	return &errors.ParseError{
		Source:   source,
		Document: document,
		Offset:   offset,
		Line:     line,
		Column:   column,
		Err:      fmt.Errorf("%w: %v", errors.ErrInvalidJSON, cause),
	}
}

// build walks the validated stream token by token so that object members
// keep their document order.
func build(data []byte, count int, source string) ([]models.Document, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	docs := make([]models.Document, 0, count)
	for i := 0; i < count; i++ {
		value, err := readValue(decoder)
		if err != nil {
			return nil, newParseError(data, source, i, decoder.InputOffset(), err)
		}
		docs = append(docs, models.Document{Source: source, Index: i, Value: value})
	}
	return docs, nil
}

func readValue(decoder *json.Decoder) (models.JSONValue, error) {
	tok, err := decoder.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			obj := models.NewJSONObject()
			for decoder.More() {
				keyTok, err := decoder.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("expected object key, got %v", keyTok)
				}
				member, err := readValue(decoder)
				if err != nil {
					return nil, err
				}
				obj.Set(key, member)
			}
			if _, err := decoder.Token(); err != nil { // closing brace
				return nil, err
			}
			return obj, nil
		case '[':
			arr := make(models.JSONArray, 0)
			for decoder.More() {
				element, err := readValue(decoder)
				if err != nil {
					return nil, err
				}
				arr = append(arr, element)
			}
			if _, err := decoder.Token(); err != nil { // closing bracket
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", rune(v))
		}
	case json.Number:
		// The decoder hands out numbers that alias its read buffer.
		return json.Number(strings.Clone(string(v))), nil
	case float64:
		return json.Number(strconv.FormatFloat(v, 'g', -1, 64)), nil
	case string, bool, nil:
		return v, nil
	default:
		return nil, fmt.Errorf("unexpected token %T", v)
	}
}

// ParseString parses JSON from a string
func ParseString(jsonString string) (models.IntermediateRepresentation, error) {
	return ParseStringWithOptions(jsonString, Options{})
}

// ParseStringWithOptions parses one or more JSON documents from a string.
func ParseStringWithOptions(jsonString string, opts Options) (models.IntermediateRepresentation, error) {
	if strings.TrimSpace(jsonString) == "" {
		// Provide a specific error for truly empty or whitespace-only strings
		return models.IntermediateRepresentation{}, errors.NewInputError("input string is empty", errors.ErrEmptyInput)
	}
	return parseBytes([]byte(jsonString), opts)
}

// ParseFile parses JSON from a file path
func ParseFile(filePath string) (models.IntermediateRepresentation, error) {
	return ParseFileWithOptions(filePath, Options{})
}

// ParseFileWithOptions parses a file; opts.Source defaults to the path.
func ParseFileWithOptions(filePath string, opts Options) (models.IntermediateRepresentation, error) {
	if strings.TrimSpace(filePath) == "" {
		return models.IntermediateRepresentation{}, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	if opts.Source == "" {
		opts.Source = filePath
	}
	file, err := os.Open(filePath)
	if err != nil {
		// Check if the file doesn't exist
		if os.IsNotExist(err) {
			return models.IntermediateRepresentation{}, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return models.IntermediateRepresentation{}, errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.Warn("error closing file", "path", filePath, "error", err)
		}
	}()

	// Check for empty file before parsing
	stat, err := file.Stat()
	if err != nil {
		return models.IntermediateRepresentation{}, errors.NewInputError(
			fmt.Sprintf("failed to get file stats for '%s'", filePath),
			err,
		)
	}
	if stat.Size() == 0 {
		return models.IntermediateRepresentation{}, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}

	return ParseWithOptions(file, opts)
}

// ParseFiles parses several files concurrently. The result lists documents
// in the order of paths, then in file order.
func ParseFiles(ctx context.Context, paths []string, opts Options) (models.IntermediateRepresentation, error) {
	if len(paths) == 0 {
		return models.IntermediateRepresentation{}, errors.NewInputError("no input files", errors.ErrNoInput)
	}

	results := make([]models.IntermediateRepresentation, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fileOpts := opts
			fileOpts.Source = path
			ir, err := ParseFileWithOptions(path, fileOpts)
			if err != nil {
				return err
			}
			results[i] = ir
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.IntermediateRepresentation{}, err
	}

	merged := models.IntermediateRepresentation{RootIsArray: true}
	for _, ir := range results {
		merged.Documents = append(merged.Documents, ir.Documents...)
		merged.RootIsArray = merged.RootIsArray && ir.RootIsArray
	}
	return merged, nil
}
