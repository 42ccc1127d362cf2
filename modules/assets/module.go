package assets

import (
	"github.com/trackforge/assetflow/modules/assets/infrastructure/persistence"
	"github.com/trackforge/assetflow/modules/assets/presentation/controllers"
	"github.com/trackforge/assetflow/modules/assets/services"
	"github.com/trackforge/assetflow/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.RegisterServices(
		services.NewAssetLifecycleService(
			persistence.NewPgLifecycleRepository(),
			persistence.NewPgHistoryRepository(),
			app.EventPublisher(),
		),
		services.NewApprovalQueryService(persistence.NewPgApprovalQueryRepository()),
	)

	app.RegisterControllers(
		controllers.NewAssetsAPIController(app),
	)

	return nil
}

func (m *Module) Name() string {
	return "assets"
}
