package votingengine

import (
	"log/slog"
	"time"

	httpadapter "github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/adapters/http"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/adapters/memory"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/application/commands"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/application/queries"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/application/workers"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/domain/entities"
	"github.com/amiparadis250/kpdu-sub001/contexts/election-operations/voting-engine/ports"
)

type Module struct {
	Handler       httpadapter.Handler
	OutboxRelay   workers.OutboxRelay
	StateConsumer workers.ElectionStateConsumer
	Verifier      workers.VoteVerifier
	Store         *memory.Store
}

type Dependencies struct {
	Votes            ports.VoteRepository
	Directory        ports.ElectionDirectory
	DirectoryWriter  ports.ElectionDirectoryWriter
	Outbox           ports.OutboxWriter
	OutboxLog        ports.OutboxRepository
	Publisher        ports.EventPublisher
	Subscriber       ports.EventSubscriber
	Dedup            ports.EventDedupStore
	Clock            ports.Clock
	IDGen            ports.IDGenerator
	BatchSize        int
	ConsumerGroup    string
	DedupTTL         time.Duration
	ConsumerDisabled bool
	Logger           *slog.Logger
}

func NewModule(deps Dependencies) Module {
	castUseCase := commands.CastVoteUseCase{
		Votes:     deps.Votes,
		Directory: deps.Directory,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	voterUseCase := queries.VoterUseCase{
		Votes: deps.Votes,
	}
	return Module{
		Handler: httpadapter.Handler{
			Casts:  castUseCase,
			Voters: voterUseCase,
			Logger: deps.Logger,
		},
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.OutboxLog,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: deps.BatchSize,
			Logger:    deps.Logger,
		},
		StateConsumer: workers.ElectionStateConsumer{
			Subscriber:    deps.Subscriber,
			Dedup:         deps.Dedup,
			Directory:     deps.DirectoryWriter,
			Clock:         deps.Clock,
			ConsumerGroup: deps.ConsumerGroup,
			DedupTTL:      deps.DedupTTL,
			Disabled:      deps.ConsumerDisabled,
			Logger:        deps.Logger,
		},
		Verifier: workers.VoteVerifier{
			Votes:     deps.Votes,
			Outbox:    deps.Outbox,
			Clock:     deps.Clock,
			IDGen:     deps.IDGen,
			BatchSize: deps.BatchSize,
			Logger:    deps.Logger,
		},
	}
}

func NewInMemoryModule(
	seed []entities.Vote,
	publisher ports.EventPublisher,
	subscriber ports.EventSubscriber,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Votes:           store,
		Directory:       store,
		DirectoryWriter: store,
		Outbox:          store,
		OutboxLog:       store,
		Publisher:       publisher,
		Subscriber:      subscriber,
		Dedup:           store,
		Clock:           store,
		IDGen:           store,
		Logger:          logger,
	})
	module.Store = store
	return module
}
