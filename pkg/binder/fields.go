package binder

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	durationType        = reflect.TypeFor[time.Duration]()
)

// boundField is a settable struct field together with its request parameter.
type boundField struct {
	param string
	name  string
	value reflect.Value
}

// tagged lists the settable fields of *v that carry tag. Fields without the
// tag, or tagged "-", are skipped so several binders can share one struct.
func tagged(v any, tag string, bindErr error) ([]boundField, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, fmt.Errorf("%w: target must be a non-nil pointer", bindErr)
	}
	if rv = rv.Elem(); rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: target must be a pointer to struct", bindErr)
	}

	var out []boundField
	rt := rv.Type()
	for i := range rt.NumField() {
		sf := rt.Field(i)
		if !rv.Field(i).CanSet() {
			continue
		}
		param, _, _ := strings.Cut(sf.Tag.Get(tag), ",")
		if param == "" || param == "-" {
			continue
		}
		out = append(out, boundField{param: param, name: sf.Name, value: rv.Field(i)})
	}
	return out, nil
}

// taggedFields returns the parameter names bound by tag.
func taggedFields(v any, tag string, bindErr error) ([]string, error) {
	fields, err := tagged(v, tag, bindErr)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.param
	}
	return names, nil
}

// bindToStruct copies values into the fields of v tagged with tag. Missing
// parameters leave the field untouched.
func bindToStruct(v any, tag string, values map[string][]string, bindErr error) error {
	fields, err := tagged(v, tag, bindErr)
	if err != nil {
		return err
	}
	for _, f := range fields {
		raw := values[f.param]
		if len(raw) == 0 {
			continue
		}
		if err := assign(f.value, raw); err != nil {
			return fmt.Errorf("%w: field %s: %v", bindErr, f.name, err)
		}
	}
	return nil
}

// assign decodes raw into dst. Pointers are allocated, slices accept both
// repeated and comma-separated values, and TextUnmarshaler types such as
// uuid.UUID decode themselves.
func assign(dst reflect.Value, raw []string) error {
	t := dst.Type()
	if t.Kind() == reflect.Pointer {
		if dst.IsNil() {
			dst.Set(reflect.New(t.Elem()))
		}
		return assign(dst.Elem(), raw)
	}

	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		u := dst.Addr().Interface().(encoding.TextUnmarshaler)
		if err := u.UnmarshalText([]byte(strings.TrimSpace(raw[0]))); err != nil {
			return fmt.Errorf("invalid %s value %q", t, raw[0])
		}
		return nil
	}

	if t.Kind() == reflect.Slice {
		var parts []string
		for _, r := range raw {
			parts = append(parts, strings.Split(r, ",")...)
		}
		out := reflect.MakeSlice(t, len(parts), len(parts))
		for i, p := range parts {
			if err := assign(out.Index(i), []string{strings.TrimSpace(p)}); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil
	}

	return scalar(dst, raw[0])
}

func scalar(dst reflect.Value, s string) error {
	t := dst.Type()
	switch {
	case t == durationType:
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration value %q", s)
		}
		dst.SetInt(int64(d))
	case dst.CanInt():
		n, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return fmt.Errorf("invalid int value %q", s)
		}
		dst.SetInt(n)
	case dst.CanUint():
		n, err := strconv.ParseUint(s, 10, t.Bits())
		if err != nil {
			return fmt.Errorf("invalid uint value %q", s)
		}
		dst.SetUint(n)
	case dst.CanFloat():
		n, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return fmt.Errorf("invalid float value %q", s)
		}
		dst.SetFloat(n)
	case t.Kind() == reflect.Bool:
		b, err := parseBool(s)
		if err != nil {
			return err
		}
		dst.SetBool(b)
	case t.Kind() == reflect.String:
		dst.SetString(s)
	default:
		return fmt.Errorf("unsupported type %s", t.Kind())
	}
	return nil
}

// parseBool also accepts HTML checkbox values.
func parseBool(s string) (bool, error) {
	if b, err := strconv.ParseBool(s); err == nil {
		return b, nil
	}
	switch strings.ToLower(s) {
	case "on", "yes":
		return true, nil
	case "off", "no", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid bool value %q", s)
}
