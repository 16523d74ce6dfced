package model

import "net/url"

// Reserved context field names. AppName and Environment are static: they are
// fixed at client construction and cannot be written afterwards.
const (
	FieldAppName       = "appName"
	FieldEnvironment   = "environment"
	FieldUserID        = "userId"
	FieldSessionID     = "sessionId"
	FieldRemoteAddress = "remoteAddress"
)

// Context is the evaluation context sent to the proxy on every fetch.
type Context struct {
	AppName       string            `json:"appName,omitempty"`
	Environment   string            `json:"environment,omitempty"`
	UserID        string            `json:"userId,omitempty"`
	SessionID     string            `json:"sessionId,omitempty"`
	RemoteAddress string            `json:"remoteAddress,omitempty"`
	Properties    map[string]string `json:"properties,omitempty"`
}

// IsStaticField reports whether name may only be set at construction.
func IsStaticField(name string) bool {
	return name == FieldAppName || name == FieldEnvironment
}

// IsReservedField reports whether name maps to a top-level context field
// rather than the properties bag.
func IsReservedField(name string) bool {
	return name == FieldUserID || name == FieldSessionID || name == FieldRemoteAddress
}

// QueryParams flattens the context into URL query parameters. Empty fields
// are omitted; properties entries become parameters named properties[<key>].
func (c Context) QueryParams() url.Values {
	params := url.Values{}
	set := func(name, value string) {
		if value != "" {
			params.Set(name, value)
		}
	}
	set(FieldAppName, c.AppName)
	set(FieldEnvironment, c.Environment)
	set(FieldUserID, c.UserID)
	set(FieldSessionID, c.SessionID)
	set(FieldRemoteAddress, c.RemoteAddress)
	for k, v := range c.Properties {
		params.Set("properties["+k+"]", v)
	}
	return params
}

// Copy returns a deep copy, duplicating the properties map.
func (c Context) Copy() Context {
	out := c
	if c.Properties != nil {
		out.Properties = make(map[string]string, len(c.Properties))
		for k, v := range c.Properties {
			out.Properties[k] = v
		}
	}
	return out
}
