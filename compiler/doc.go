// Package compiler turns declarative endpoint descriptors into request functions.
//
// A [Descriptor] names a URL template, a request type and the positional
// parameters a call takes:
//
//	d := compiler.Descriptor{
//		URL:            "/users/{id}",
//		RequestType:    compiler.Replace,
//		URLParameters:  []string{"id"},
//		BodyParameters: compiler.Keyed("name", "email"),
//		Headers:        map[string]string{},
//		UseAuth:        compiler.Bool(true),
//	}
//	updateUser, err := compiler.Compile("updateUser", d, ex)
//	res, err := updateUser(ctx, 42, "alice", "alice@example.com")
//
// Arguments are consumed in order: URL parameters first, then body
// parameters, then form parameters. A call with the wrong number of
// arguments fails with a [ConfigurationError] before anything is sent.
package compiler
