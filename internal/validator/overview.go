// Package validator implements the Validator Overview report (spec
// §4.5/§4.6): the parsed contents of a testlib validator's
// --testOverviewLogFileName output, re-uploaded to the sandbox as a
// MessagePack-encoded file per the Workflow Engine's Validate task.
//
// There is no protoc/msgp codegen available in this environment, so the
// Marshal/UnmarshalMsg methods below are hand-written in the same style
// `msgp` itself generates (append-style encoding into a growable []byte,
// matched by the `msgp.Read*Bytes` decode helpers) — the pattern the
// teacher's own generated `*_gen.go` files follow, just typed by hand
// instead of by `go generate`.
package validator

import (
	"regexp"
	"strings"

	"github.com/tinylib/msgp/msgp"
)

// VarBound records whether a variable's sampled values hit its declared
// minimum and/or maximum, per spec §4.5's val.log grammar.
type VarBound struct {
	HitMin bool
	HitMax bool
}

// Overview is a validator run's parsed report: per-variable bound
// coverage plus named boolean features.
type Overview struct {
	Variables map[string]VarBound
	Features  map[string]bool
}

var (
	varLinePattern     = regexp.MustCompile(`^"([^"]+)":(.*)$`)
	featureLinePattern = regexp.MustCompile(`^feature "([^"]+)":(.*)$`)
)

// Parse reads a val.log body per spec §4.5: lines of the form
// `"varname": ...min-value-hit... ...max-value-hit...` record bound
// coverage, and `feature "name": hit` lines record a hit feature (any
// other text after the colon, including none, records it as not hit).
// Unrecognised lines are ignored.
func Parse(log string) Overview {
	ov := Overview{
		Variables: make(map[string]VarBound),
		Features:  make(map[string]bool),
	}
	for _, line := range strings.Split(log, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := featureLinePattern.FindStringSubmatch(line); m != nil {
			ov.Features[m[1]] = strings.TrimSpace(m[2]) == "hit"
			continue
		}
		if m := varLinePattern.FindStringSubmatch(line); m != nil {
			ov.Variables[m[1]] = VarBound{
				HitMin: strings.Contains(m[2], "min-value-hit"),
				HitMax: strings.Contains(m[2], "max-value-hit"),
			}
		}
	}
	return ov
}

// MarshalMsg appends the MessagePack encoding of o to b.
func (o Overview) MarshalMsg(b []byte) ([]byte, error) {
	b = msgp.AppendMapHeader(b, 2)

	b = msgp.AppendString(b, "Variables")
	b = msgp.AppendMapHeader(b, uint32(len(o.Variables)))
	for name, bound := range o.Variables {
		b = msgp.AppendString(b, name)
		b = msgp.AppendMapHeader(b, 2)
		b = msgp.AppendString(b, "HitMin")
		b = msgp.AppendBool(b, bound.HitMin)
		b = msgp.AppendString(b, "HitMax")
		b = msgp.AppendBool(b, bound.HitMax)
	}

	b = msgp.AppendString(b, "Features")
	b = msgp.AppendMapHeader(b, uint32(len(o.Features)))
	for name, hit := range o.Features {
		b = msgp.AppendString(b, name)
		b = msgp.AppendBool(b, hit)
	}

	return b, nil
}

// UnmarshalMsg decodes a MessagePack-encoded Overview from bts, returning
// any trailing bytes.
func (o *Overview) UnmarshalMsg(bts []byte) ([]byte, error) {
	var err error
	var topSz uint32
	topSz, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return bts, err
	}

	o.Variables = make(map[string]VarBound)
	o.Features = make(map[string]bool)

	for i := uint32(0); i < topSz; i++ {
		var key string
		key, bts, err = msgp.ReadStringBytes(bts)
		if err != nil {
			return bts, err
		}
		switch key {
		case "Variables":
			var sz uint32
			sz, bts, err = msgp.ReadMapHeaderBytes(bts)
			if err != nil {
				return bts, err
			}
			for j := uint32(0); j < sz; j++ {
				var name string
				name, bts, err = msgp.ReadStringBytes(bts)
				if err != nil {
					return bts, err
				}
				var fieldSz uint32
				fieldSz, bts, err = msgp.ReadMapHeaderBytes(bts)
				if err != nil {
					return bts, err
				}
				var bound VarBound
				for k := uint32(0); k < fieldSz; k++ {
					var fname string
					fname, bts, err = msgp.ReadStringBytes(bts)
					if err != nil {
						return bts, err
					}
					var v bool
					v, bts, err = msgp.ReadBoolBytes(bts)
					if err != nil {
						return bts, err
					}
					switch fname {
					case "HitMin":
						bound.HitMin = v
					case "HitMax":
						bound.HitMax = v
					}
				}
				o.Variables[name] = bound
			}
		case "Features":
			var sz uint32
			sz, bts, err = msgp.ReadMapHeaderBytes(bts)
			if err != nil {
				return bts, err
			}
			for j := uint32(0); j < sz; j++ {
				var name string
				name, bts, err = msgp.ReadStringBytes(bts)
				if err != nil {
					return bts, err
				}
				var v bool
				v, bts, err = msgp.ReadBoolBytes(bts)
				if err != nil {
					return bts, err
				}
				o.Features[name] = v
			}
		}
	}
	return bts, nil
}

var (
	_ msgp.Marshaler   = Overview{}
	_ msgp.Unmarshaler = (*Overview)(nil)
)
