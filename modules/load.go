package modules

import (
	"github.com/trackforge/assetflow/modules/assets"
	"github.com/trackforge/assetflow/pkg/application"
)

var BuiltInModules = []application.Module{
	assets.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
