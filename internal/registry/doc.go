// Package registry maps the action names used in topology files to the Go
// code that builds them.
//
// Modules register an ActionFactory per action name at startup. When the
// graph is built, every node's action name is resolved through the registry
// and the factory is called with the node's settings. Validation runs before
// any node is built, so a topology that names an unknown action is rejected
// as a whole.
package registry
