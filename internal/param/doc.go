// Package param implements scoped key-value parameter stores: typed values,
// declare-with-default semantics, change callbacks, and JSON file loading
// with optional hot reload.
//
// Each store belongs to one scope, usually a node's fully qualified name or
// the process-wide configuration. Owners declare their parameters with
// defaults at startup; operators override them through a parameter file or
// programmatic Set calls:
//
//	params := param.NewStore("/demo/talker")
//	params.Declare("publish_rate_hz", param.Float(1))
//	params.Declare("greeting", param.String("hello world"))
//
//	rate, _ := params.Get("publish_rate_hz")
//	hz, _ := rate.GetFloat()
//
// Values are a tagged union over string, int, float, and bool. Declare never
// overwrites an existing value, so file loads and Set calls that happen
// before the owner boots take precedence over its defaults.
package param
