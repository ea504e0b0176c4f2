package app

import (
	"github.com/vk/adagraph/internal/registry"
	"github.com/vk/adagraph/modules/print"
	"github.com/vk/adagraph/modules/socketio"
	"github.com/vk/adagraph/modules/webhook"
)

// coreModules is the definitive list of all modules that are compiled into
// the adagraph binary.
var coreModules = []registry.Module{
	&print.Module{},
	&socketio.Module{},
	&webhook.Module{},
}
