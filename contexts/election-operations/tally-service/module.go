package tallyservice

import (
	"log/slog"

	httpadapter "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/adapters/http"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/adapters/memory"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/application/commands"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/application/queries"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/domain/entities"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/tally-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Votes     ports.VoteReader
	Directory ports.CandidateDirectory
	Overrides ports.OverrideRepository
	Clock     ports.Clock
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	resultsUseCase := queries.ResultsUseCase{
		Votes:     deps.Votes,
		Directory: deps.Directory,
		Overrides: deps.Overrides,
		Clock:     deps.Clock,
	}
	overrideUseCase := commands.OverrideUseCase{
		Directory: deps.Directory,
		Overrides: deps.Overrides,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Results:   resultsUseCase,
			Overrides: overrideUseCase,
			Logger:    deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.BallotEntry, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Votes:     store,
		Directory: store,
		Overrides: store,
		Clock:     store,
		Logger:    logger,
	})
	module.Store = store
	return module
}
