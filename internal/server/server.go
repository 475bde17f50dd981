// Package server exposes registered datasets over gRPC
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nainya/recquery/internal/logger"
	"github.com/nainya/recquery/internal/metrics"
	"github.com/nainya/recquery/pkg/condition"
	"github.com/nainya/recquery/pkg/dataset"
	"github.com/nainya/recquery/pkg/query"
	"github.com/nainya/recquery/pkg/value"
)

const maxMsgSize = 100 * 1024 * 1024 // 100 MB

// Server implements QueryServiceServer over a Registry
type Server struct {
	engine    *query.Engine
	registry  *Registry
	log       *logger.Logger
	startTime time.Time
}

var _ QueryServiceServer = (*Server)(nil)

// NewServer creates a query service. log may be nil.
func NewServer(engine *query.Engine, registry *Registry, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		engine:    engine,
		registry:  registry,
		log:       log,
		startTime: time.Now(),
	}
}

// Find runs a query against a named dataset.
func (s *Server) Find(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	name := fields["dataset"].GetStringValue()
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "dataset is required")
	}
	ds, err := s.registry.Get(name)
	if err != nil {
		return nil, toStatus(err)
	}

	opts, err := query.OptionsFromValue(fromProto(fields["options"]))
	if err != nil {
		return nil, toStatus(err)
	}
	sel, err := parseSelector(fields["select"])
	if err != nil {
		return nil, toStatus(err)
	}

	start := time.Now()
	res, err := s.engine.Find(ds, opts, sel)
	qlog := s.log.QueryLogger(name)
	if err != nil {
		qlog.LogQuery("find", time.Since(start), ds.Len(), 0, err)
		return nil, toStatus(err)
	}

	if fields["reindex"].GetBoolValue() && res.Records != nil {
		res.Records = res.Records.Reindex()
	}

	out := encodeResult(res)
	qlog.LogQuery("find", time.Since(start), ds.Len(), resultLen(res), nil)

	resp, err := toStruct(out)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// Extract resolves a key path against a stored record or an inline item.
func (s *Server) Extract(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	path := fields["path"].GetStringValue()

	var item value.Value
	if pv, ok := fields["item"]; ok {
		item = fromProto(pv)
	} else {
		name := fields["dataset"].GetStringValue()
		if name == "" {
			return nil, status.Error(codes.InvalidArgument, "dataset or item is required")
		}
		ds, err := s.registry.Get(name)
		if err != nil {
			return nil, toStatus(err)
		}
		key, ok := dataset.KeyFromValue(fromProto(fields["key"]))
		if !ok {
			return nil, status.Error(codes.InvalidArgument, "key must be a number or a string")
		}
		rec, found := ds.Get(key)
		if !found {
			return nil, status.Errorf(codes.NotFound, "record %s not found in %q", key, name)
		}
		item = rec
	}

	values := s.engine.Extract(item, path)
	resp, err := toStruct(value.Object(value.F("values", value.Sequence(values...))))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// ListDatasets reports registered datasets and server uptime.
func (s *Server) ListDatasets(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	names := s.registry.Names()
	items := make([]value.Value, 0, len(names))
	for _, name := range names {
		ds, err := s.registry.Get(name)
		if err != nil {
			continue
		}
		items = append(items, value.Object(
			value.F("name", name),
			value.F("records", ds.Len()),
		))
	}

	resp, err := toStruct(value.Object(
		value.F("datasets", value.Sequence(items...)),
		value.F("uptime_seconds", int64(time.Since(s.startTime).Seconds())),
	))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// parseSelector accepts "all", "first", "last", a key name or an index.
func parseSelector(pv *structpb.Value) (query.Selector, error) {
	if pv == nil {
		return query.SelectAll, nil
	}
	v := fromProto(pv)
	switch v.Kind() {
	case value.KindNull:
		return query.SelectAll, nil
	case value.KindString:
		s, _ := v.AsString()
		return query.ParseSelector(s), nil
	case value.KindInt:
		i, _ := v.AsInt()
		return query.SelectKey(dataset.Index(i)), nil
	default:
		return query.Selector{}, fmt.Errorf("%w: select must be a string or an index", query.ErrInvalidOptions)
	}
}

// encodeResult lays records out as an ordered list of key/record pairs
// since protobuf structs do not keep key order.
func encodeResult(res *query.Result) value.Value {
	m := value.NewMapping(4)
	m.Set("found", value.Bool(res.Found))

	if res.Records != nil {
		items := make([]value.Value, 0, res.Records.Len())
		res.Records.Range(func(k dataset.Key, rec value.Value) bool {
			items = append(items, value.Object(
				value.F("key", k.Value()),
				value.F("record", rec),
			))
			return true
		})
		m.Set("records", value.Sequence(items...))
	} else if res.Found {
		m.Set("key", res.Key.Value())
		m.Set("record", res.Record)
	}

	diags := make([]value.Value, 0, len(res.Diagnostics))
	for _, d := range res.Diagnostics {
		diags = append(diags, value.Object(
			value.F("kind", d.Kind.String()),
			value.F("condition", d.Condition),
			value.F("count", d.Count),
			value.F("message", d.Err.Error()),
		))
	}
	m.Set("diagnostics", value.Sequence(diags...))
	return value.Map(m)
}

func resultLen(res *query.Result) int {
	if res.Records != nil {
		return res.Records.Len()
	}
	if res.Found {
		return 1
	}
	return 0
}

// toStatus maps domain errors onto gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, ErrDatasetNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, condition.ErrUnknownOperator),
		errors.Is(err, condition.ErrMalformedCondition),
		errors.Is(err, query.ErrInvalidOptions):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// GRPCOptions configures NewGRPCServer.
type GRPCOptions struct {
	// RateLimit is the sustained requests per second; 0 disables limiting.
	RateLimit float64
	RateBurst int
}

// NewGRPCServer builds a gRPC server with the query service, the standard
// health service and reflection registered.
func NewGRPCServer(srv *Server, m *metrics.Metrics, log *logger.Logger, opts GRPCOptions) (*grpc.Server, *health.Server) {
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = max(1, int(opts.RateLimit))
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	gs := grpc.NewServer(
		grpc.MaxRecvMsgSize(maxMsgSize),
		grpc.MaxSendMsgSize(maxMsgSize),
		grpc.ChainUnaryInterceptor(GrpcMetricsInterceptor(m, log, limiter)),
	)

	RegisterQueryServiceServer(gs, srv)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)

	// Reflection for grpcurl/grpcui; the query service resolves through
	// File_recquery_v1_query_proto.
	reflection.Register(gs)

	return gs, hs
}

// Serve runs gs on lis until ctx is cancelled, then stops gracefully.
func Serve(ctx context.Context, gs *grpc.Server, hs *health.Server, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- gs.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		hs.Shutdown()
		gs.GracefulStop()
		<-errCh
		return nil
	}
}
