package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/merqado/concierge/pkg/logger"
	"github.com/merqado/concierge/pkg/metrics"
)

// SubjectRoot prefixes every catalog change subject. The catalog platform
// publishes on catalog.<entity>.<op>, e.g. catalog.product.upsert.
const SubjectRoot = "catalog"

// Entity names a catalog entity kind on the wire.
type Entity string

const (
	EntityStore     Entity = "store"
	EntityProduct   Entity = "product"
	EntityPromotion Entity = "promotion"
)

// Op names a catalog change operation on the wire.
type Op string

const (
	OpUpsert Op = "upsert"
	OpDelete Op = "delete"
)

// deleteEvent is the payload of every delete subject.
type deleteEvent struct {
	ID int64 `json:"id"`
}

// Ingest consumes catalog change events from JetStream and applies them to
// the snapshot, keeping the local read model current.
type Ingest struct {
	js       jetstream.JetStream
	snapshot *Snapshot
	stream   string
	durable  string
	logger   *logger.Logger
}

// NewIngest creates a catalog event consumer bound to the given stream.
func NewIngest(js jetstream.JetStream, snapshot *Snapshot, stream, durable string, log *logger.Logger) *Ingest {
	return &Ingest{
		js:       js,
		snapshot: snapshot,
		stream:   stream,
		durable:  durable,
		logger:   log,
	}
}

// Run consumes catalog events until ctx is cancelled. Events that cannot be
// parsed are terminated rather than redelivered.
func (in *Ingest) Run(ctx context.Context) error {
	cons, err := in.js.CreateOrUpdateConsumer(ctx, in.stream, jetstream.ConsumerConfig{
		Durable:       in.durable,
		FilterSubject: SubjectRoot + ".>",
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return fmt.Errorf("creating catalog consumer: %w", err)
	}

	cc, err := cons.Consume(in.handle)
	if err != nil {
		return fmt.Errorf("consuming catalog stream: %w", err)
	}
	defer cc.Stop()

	in.logger.Info("catalog ingest running",
		zap.String("stream", in.stream),
		zap.String("durable", in.durable),
	)

	<-ctx.Done()
	return nil
}

func (in *Ingest) handle(msg jetstream.Msg) {
	if err := in.Apply(msg.Subject(), msg.Data()); err != nil {
		in.logger.Warn("dropping catalog event",
			zap.String("subject", msg.Subject()),
			zap.Error(err),
		)
		_ = msg.Term()
		return
	}
	_ = msg.Ack()
}

// Apply parses one catalog event and applies it to the snapshot.
func (in *Ingest) Apply(subject string, data []byte) error {
	entity, op, err := parseSubject(subject)
	if err != nil {
		return err
	}

	switch op {
	case OpUpsert:
		switch entity {
		case EntityStore:
			var st Store
			if err := json.Unmarshal(data, &st); err != nil {
				return fmt.Errorf("decoding store upsert: %w", err)
			}
			in.snapshot.UpsertStore(st)
		case EntityProduct:
			var p Product
			if err := json.Unmarshal(data, &p); err != nil {
				return fmt.Errorf("decoding product upsert: %w", err)
			}
			in.snapshot.UpsertProduct(p)
		case EntityPromotion:
			var pm Promotion
			if err := json.Unmarshal(data, &pm); err != nil {
				return fmt.Errorf("decoding promotion upsert: %w", err)
			}
			in.snapshot.UpsertPromotion(pm)
		}
	case OpDelete:
		var ev deleteEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("decoding delete event: %w", err)
		}
		switch entity {
		case EntityStore:
			in.snapshot.DeleteStore(ev.ID)
		case EntityProduct:
			in.snapshot.DeleteProduct(ev.ID)
		case EntityPromotion:
			in.snapshot.DeletePromotion(ev.ID)
		}
	}

	metrics.RecordCatalogEvent(string(entity), string(op))
	return nil
}

func parseSubject(subject string) (Entity, Op, error) {
	parts := strings.Split(subject, ".")
	if len(parts) != 3 || parts[0] != SubjectRoot {
		return "", "", fmt.Errorf("unexpected catalog subject %q", subject)
	}

	entity := Entity(parts[1])
	switch entity {
	case EntityStore, EntityProduct, EntityPromotion:
	default:
		return "", "", fmt.Errorf("unknown catalog entity %q", parts[1])
	}

	op := Op(parts[2])
	switch op {
	case OpUpsert, OpDelete:
	default:
		return "", "", fmt.Errorf("unknown catalog op %q", parts[2])
	}

	return entity, op, nil
}
