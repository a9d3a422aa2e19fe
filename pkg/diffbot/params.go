package diffbot

import (
	"net/url"
	"strconv"
)

// Params is the query-parameter mapping sent to the service. Order is
// irrelevant. An option that was never set must not appear as a key: the
// service treats an empty value differently from an omitted one.
type Params map[string]string

// Merge returns a new Params holding p overlaid with each of others in turn.
func (p Params) Merge(others ...Params) Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, o := range others {
		for k, v := range o {
			out[k] = v
		}
	}
	return out
}

// Values converts p to url.Values.
func (p Params) Values() url.Values {
	v := make(url.Values, len(p))
	for k, val := range p {
		v.Set(k, val)
	}
	return v
}

// Encode form-encodes p. Spaces become '+'.
func (p Params) Encode() string {
	return p.Values().Encode()
}

// String returns a pointer to s, for optional argument fields.
func String(s string) *string { return &s }

// Int returns a pointer to i, for optional argument fields.
func Int(i int) *int { return &i }

// Bool returns a pointer to b, for optional argument fields.
func Bool(b bool) *bool { return &b }

// Float returns a pointer to f, for optional argument fields.
func Float(f float64) *float64 { return &f }

// sparse accumulates only the options that were set.
type sparse Params

func (s sparse) setString(key string, v *string) sparse {
	if v != nil {
		s[key] = *v
	}
	return s
}

func (s sparse) setInt(key string, v *int) sparse {
	if v != nil {
		s[key] = strconv.Itoa(*v)
	}
	return s
}

func (s sparse) setFloat(key string, v *float64) sparse {
	if v != nil {
		s[key] = strconv.FormatFloat(*v, 'f', -1, 64)
	}
	return s
}

// setBool sends 1/0, which is what the service's flags expect.
func (s sparse) setBool(key string, v *bool) sparse {
	if v != nil {
		if *v {
			s[key] = "1"
		} else {
			s[key] = "0"
		}
	}
	return s
}

// setFlag sends true/false, the spelling the extraction APIs use.
func (s sparse) setFlag(key string, v *bool) sparse {
	if v != nil {
		s[key] = strconv.FormatBool(*v)
	}
	return s
}
