package instance

import (
	"github.com/nats-io/nats.go"
	"github.com/trutim/api/data/model"
	"github.com/trutim/api/data/mutate"
	"github.com/trutim/api/data/query"
	"github.com/trutim/api/internal/svc/auth"
	"github.com/trutim/api/internal/svc/mongo"
)

type Instances struct {
	Mongo      mongo.Instance
	Nats       *nats.Conn
	Auth       auth.Authorizer
	Prometheus Prometheus
	Modelizer  model.Modelizer

	Query  *query.Query
	Mutate *mutate.Mutate
}
