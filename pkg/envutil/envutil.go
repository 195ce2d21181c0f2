// Package envutil updates configuration structs from environment variables.
package envutil

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Name returns the environment variable name for a json-tagged field.
// e.g. prefix "ANN_LAUNCH_" and tag "log-level,omitempty" yields "ANN_LAUNCH_LOG_LEVEL".
func Name(prefix string, jsonTag string) string {
	jv := strings.Replace(jsonTag, ",omitempty", "", -1)
	jv = strings.ToUpper(strings.Replace(jv, "-", "_", -1))
	return prefix + jv
}

// Apply overwrites the fields of the struct pointed to by v with the values
// of the matching non-empty environment variables.
// Nested struct pointers are skipped; callers apply them with their own prefix.
// Slices of strings are comma-separated, other slices and maps are JSON.
func Apply(prefix string, v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("expected struct pointer, got %T", v)
	}
	tp, vv := rv.Elem().Type(), rv.Elem()
	for i := 0; i < tp.NumField(); i++ {
		jv := tp.Field(i).Tag.Get("json")
		if jv == "" || jv == "-" {
			continue
		}
		env := Name(prefix, jv)
		sv := os.Getenv(env)
		if sv == "" {
			continue
		}

		fv := vv.Field(i)
		switch fv.Kind() {
		case reflect.String:
			fv.SetString(sv)

		case reflect.Bool:
			bb, err := strconv.ParseBool(sv)
			if err != nil {
				return fmt.Errorf("failed to parse %q (%q, %v)", sv, env, err)
			}
			fv.SetBool(bb)

		case reflect.Int, reflect.Int32, reflect.Int64:
			if fv.Type() == reflect.TypeOf(time.Duration(0)) {
				dv, err := time.ParseDuration(sv)
				if err != nil {
					return fmt.Errorf("failed to parse %q (%q, %v)", sv, env, err)
				}
				fv.SetInt(int64(dv))
				continue
			}
			iv, err := strconv.ParseInt(sv, 10, 64)
			if err != nil {
				return fmt.Errorf("failed to parse %q (%q, %v)", sv, env, err)
			}
			fv.SetInt(iv)

		case reflect.Float32, reflect.Float64:
			f, err := strconv.ParseFloat(sv, 64)
			if err != nil {
				return fmt.Errorf("failed to parse %q (%q, %v)", sv, env, err)
			}
			fv.SetFloat(f)

		case reflect.Slice:
			if fv.Type().Elem().Kind() == reflect.String {
				ss := strings.Split(sv, ",")
				slice := reflect.MakeSlice(fv.Type(), len(ss), len(ss))
				for j := range ss {
					slice.Index(j).SetString(ss[j])
				}
				fv.Set(slice)
				continue
			}
			fallthrough

		case reflect.Map:
			ptr := reflect.New(fv.Type())
			if err := json.Unmarshal([]byte(sv), ptr.Interface()); err != nil {
				return fmt.Errorf("failed to parse %q (%q, %v)", sv, env, err)
			}
			fv.Set(ptr.Elem())

		case reflect.Ptr:
			continue

		default:
			return fmt.Errorf("%q (%v) is not supported as an env", env, fv.Type())
		}
	}
	return nil
}
