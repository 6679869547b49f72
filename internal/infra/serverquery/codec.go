package serverquery

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

const (
	// Terminator ends every line the server sends and every command we write.
	Terminator = "\n\r"

	// StatusPrefix starts the trailing status line of each response.
	StatusPrefix = "error "

	// statusMarker is searched for when deciding whether a frame is complete.
	statusMarker = "error id="

	// RecordSeparator splits the records of a result line.
	RecordSeparator = "|"
)

// QueryStatus is the decoded status line of a response.
type QueryStatus struct {
	ID      int    `query:"id"`
	Message string `query:"msg,optional"`
}

// OK reports whether the status denotes success.
func (s QueryStatus) OK() bool {
	return s.ID == 0
}

// Err returns nil on success, otherwise the status as a *QueryError.
func (s QueryStatus) Err() error {
	if s.OK() {
		return nil
	}
	return &QueryError{Code: s.ID, Message: s.Message}
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`/`, `\/`,
	" ", `\s`,
	"|", `\p`,
	"\a", `\a`,
	"\b", `\b`,
	"\f", `\f`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\v", `\v`,
)

var unescapes = map[byte]byte{
	'\\': '\\',
	'/':  '/',
	's':  ' ',
	'p':  '|',
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'v':  '\v',
}

// Escape encodes s for use as a command argument or field value.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Unescape reverses Escape. Unknown or dangling escape sequences are a DecodeError.
func Unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			return "", newDecodeError(s, "dangling escape at offset %d", i)
		}
		r, ok := unescapes[s[i+1]]
		if !ok {
			return "", newDecodeError(s, "unknown escape %q at offset %d", s[i:i+2], i)
		}
		b.WriteByte(r)
		i++
	}
	return b.String(), nil
}

// EncodeCommand builds a terminated command line. Arguments are escaped, so they can
// never carry the terminator.
func EncodeCommand(name string, args ...string) []byte {
	var b strings.Builder
	b.WriteString(name)
	for _, arg := range args {
		b.WriteByte(' ')
		b.WriteString(Escape(arg))
	}
	b.WriteString(Terminator)
	return []byte(b.String())
}

// Fields is one decoded group of space separated key=value tokens.
type Fields map[string]string

// ParseFields decodes a query-string group. Tokens without '=' map to an empty value.
func ParseFields(group string) (Fields, error) {
	fields := make(Fields)
	for _, token := range strings.Split(group, " ") {
		if token == "" {
			continue
		}
		key, raw, _ := strings.Cut(token, "=")
		if key == "" {
			return nil, newDecodeError(group, "empty key in token %q", token)
		}
		value, err := Unescape(raw)
		if err != nil {
			return nil, err
		}
		fields[key] = value
	}
	return fields, nil
}

// Unmarshal decodes a query-string group into the struct pointed to by v. Struct fields
// are mapped with a `query:"name"` tag; append ",optional" to allow the key to be absent.
// Supported field kinds are string, signed and unsigned integers, and bool.
func Unmarshal(group string, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("unmarshal target must be a non-nil struct pointer, got %T", v)
	}
	fields, err := ParseFields(group)
	if err != nil {
		return err
	}

	elem := rv.Elem()
	typ := elem.Type()
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		tag, ok := sf.Tag.Lookup("query")
		if !ok || !sf.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		raw, present := fields[name]
		if !present {
			if opts == "optional" {
				continue
			}
			return newDecodeError(group, "missing field %q", name)
		}
		if err := setField(elem.Field(i), raw); err != nil {
			return newDecodeError(group, "field %q: %v", name, err)
		}
	}
	return nil
}

func setField(f reflect.Value, raw string) error {
	switch f.Kind() {
	case reflect.String:
		f.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetUint(n)
	case reflect.Bool:
		switch raw {
		case "1", "true":
			f.SetBool(true)
		case "0", "false", "":
			f.SetBool(false)
		default:
			return fmt.Errorf("invalid bool %q", raw)
		}
	default:
		return fmt.Errorf("unsupported kind %s", f.Kind())
	}
	return nil
}

// Lines splits a frame into its lines, dropping the empty remainder after the
// final terminator.
func Lines(text string) []string {
	parts := strings.Split(text, "\n")
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		lines = append(lines, strings.Trim(p, "\r"))
	}
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// IsStatusLine reports whether line is a response status line.
func IsStatusLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), StatusPrefix)
}

// IsNotifyLine reports whether line is an asynchronous event push.
func IsNotifyLine(line string) bool {
	return strings.HasPrefix(line, "notify")
}

// DecodeStatus finds the status line of a response and decodes it.
func DecodeStatus(text string) (QueryStatus, error) {
	for _, line := range Lines(text) {
		if !IsStatusLine(line) {
			continue
		}
		var status QueryStatus
		body := strings.TrimPrefix(strings.TrimSpace(line), StatusPrefix)
		if err := Unmarshal(body, &status); err != nil {
			return QueryStatus{}, err
		}
		return status, nil
	}
	return QueryStatus{}, newDecodeError(text, "no status line")
}

// DecodeRecords decodes the result line of a response into records of type T.
//
// A failing status is returned as a *QueryError before any record is looked at. The
// result line is the first non-event line preceding the status line; found is false
// when there is none. A blank result line yields an empty, found result.
func DecodeRecords[T any](text string) (records []T, found bool, err error) {
	status, err := DecodeStatus(text)
	if err != nil {
		return nil, false, err
	}
	if err := status.Err(); err != nil {
		return nil, false, err
	}

	for _, line := range Lines(text) {
		if IsStatusLine(line) {
			break
		}
		if IsNotifyLine(line) {
			continue
		}
		if strings.TrimSpace(line) == "" {
			return []T{}, true, nil
		}
		groups := strings.Split(line, RecordSeparator)
		records = make([]T, 0, len(groups))
		for _, group := range groups {
			var rec T
			if err := Unmarshal(group, &rec); err != nil {
				return nil, false, err
			}
			records = append(records, rec)
		}
		return records, true, nil
	}
	return nil, false, nil
}

// responseComplete reports whether text holds a status line followed by its terminator.
func responseComplete(text string) bool {
	end := strings.LastIndex(text, Terminator)
	return end >= 0 && strings.Contains(text[:end], statusMarker)
}

// frameComplete reports whether buffered text ends a response.
func frameComplete(text string) bool {
	return strings.Contains(text, statusMarker) && strings.HasSuffix(text, Terminator)
}
