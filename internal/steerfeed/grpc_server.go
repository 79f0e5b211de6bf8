package steerfeed

import (
	"context"
	"fmt"
	"math"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/lanekeeper/internal/lane"
)

const (
	serviceName = "lanekeeper.steering.v1.SteeringFeed"
	watchMethod = "/" + serviceName + "/Watch"
)

// WatchServer is the server API of the steering feed.
//
// Watch takes a request Struct with an optional "max_frames" number and
// streams one Struct per processed frame until the client goes away, the
// limit is reached, or the publisher stops.
type WatchServer interface {
	Watch(req *structpb.Struct, stream grpc.ServerStream) error
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*WatchServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "lanekeeper/steering/v1/feed.proto",
}

func watchHandler(srv interface{}, stream grpc.ServerStream) error {
	req := new(structpb.Struct)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(WatchServer).Watch(req, stream)
}

// RegisterService registers the steering feed on a gRPC server.
func RegisterService(s grpc.ServiceRegistrar, srv WatchServer) {
	s.RegisterService(&serviceDesc, srv)
}

// Server implements WatchServer on top of a Publisher.
type Server struct {
	publisher *Publisher
}

// NewServer creates a feed server backed by p.
func NewServer(p *Publisher) *Server {
	return &Server{publisher: p}
}

// Watch streams frame results to one client.
func (s *Server) Watch(req *structpb.Struct, stream grpc.ServerStream) error {
	c := s.publisher.addClient()
	if c == nil {
		return status.Errorf(codes.ResourceExhausted, "steering feed already has %d watchers", s.publisher.config.MaxClients)
	}
	defer s.publisher.removeClient(c.id)

	var limit uint64
	if n := req.GetFields()["max_frames"].GetNumberValue(); n > 0 {
		limit = uint64(n)
	}

	ctx := stream.Context()
	var sent uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.publisher.stopCh:
			return status.Error(codes.Unavailable, "steering feed stopped")
		case res := <-c.frameCh:
			if err := stream.SendMsg(frameToStruct(s.publisher.config.Source, res)); err != nil {
				return err
			}
			sent++
			if limit > 0 && sent >= limit {
				return nil
			}
		}
	}
}

// Update is one frame as received from the feed.
type Update struct {
	Source           string
	Frame            uint64
	Angle            float64
	Branch           string
	Damped           bool
	Target           lane.Point
	Left             lane.Line
	Right            lane.Line
	RawSegments      int
	WeightedSegments int
	Clusters         int
	Elapsed          time.Duration
}

func frameToStruct(source string, res lane.FrameResult) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"source":            structpb.NewStringValue(source),
		"frame":             structpb.NewNumberValue(float64(res.Frame)),
		"angle":             structpb.NewNumberValue(res.Steering.Angle),
		"branch":            structpb.NewStringValue(res.Steering.Branch.String()),
		"damped":            structpb.NewBoolValue(res.Steering.Damped),
		"target_x":          structpb.NewNumberValue(res.Steering.Target.X),
		"target_y":          structpb.NewNumberValue(res.Steering.Target.Y),
		"raw_segments":      structpb.NewNumberValue(float64(res.RawSegments)),
		"weighted_segments": structpb.NewNumberValue(float64(res.WeightedSegments)),
		"clusters":          structpb.NewNumberValue(float64(res.Clusters)),
		"elapsed_us":        structpb.NewNumberValue(float64(res.Elapsed.Microseconds())),
	}
	if seg, ok := res.Lanes.Left.Segment(); ok {
		fields["left"] = segmentValue(seg)
	}
	if seg, ok := res.Lanes.Right.Segment(); ok {
		fields["right"] = segmentValue(seg)
	}
	return &structpb.Struct{Fields: fields}
}

func segmentValue(s lane.Segment) *structpb.Value {
	return structpb.NewListValue(&structpb.ListValue{Values: []*structpb.Value{
		structpb.NewNumberValue(float64(s.X1)),
		structpb.NewNumberValue(float64(s.Y1)),
		structpb.NewNumberValue(float64(s.X2)),
		structpb.NewNumberValue(float64(s.Y2)),
	}})
}

// UpdateFromStruct decodes one feed message. A missing "frame" field or a
// lane that is not four numbers is an error; other missing fields read as
// zero.
func UpdateFromStruct(m *structpb.Struct) (Update, error) {
	f := m.GetFields()
	frame, ok := f["frame"]
	if !ok {
		return Update{}, fmt.Errorf("feed message has no frame number")
	}
	u := Update{
		Source:           f["source"].GetStringValue(),
		Frame:            uint64(frame.GetNumberValue()),
		Angle:            f["angle"].GetNumberValue(),
		Branch:           f["branch"].GetStringValue(),
		Damped:           f["damped"].GetBoolValue(),
		Target:           lane.Point{X: f["target_x"].GetNumberValue(), Y: f["target_y"].GetNumberValue()},
		RawSegments:      int(f["raw_segments"].GetNumberValue()),
		WeightedSegments: int(f["weighted_segments"].GetNumberValue()),
		Clusters:         int(f["clusters"].GetNumberValue()),
		Elapsed:          time.Duration(f["elapsed_us"].GetNumberValue()) * time.Microsecond,
	}
	var err error
	if u.Left, err = lineFromValue(f["left"]); err != nil {
		return Update{}, fmt.Errorf("left lane: %w", err)
	}
	if u.Right, err = lineFromValue(f["right"]); err != nil {
		return Update{}, fmt.Errorf("right lane: %w", err)
	}
	return u, nil
}

func lineFromValue(v *structpb.Value) (lane.Line, error) {
	if v == nil {
		return lane.Line{}, nil
	}
	vals := v.GetListValue().GetValues()
	if len(vals) != 4 {
		return lane.Line{}, fmt.Errorf("want 4 coordinates, got %d", len(vals))
	}
	var c [4]int
	for i, x := range vals {
		if _, ok := x.GetKind().(*structpb.Value_NumberValue); !ok {
			return lane.Line{}, fmt.Errorf("coordinate %d is not a number", i)
		}
		c[i] = int(math.Round(x.GetNumberValue()))
	}
	return lane.LineOf(lane.Segment{X1: c[0], Y1: c[1], X2: c[2], Y2: c[3]}), nil
}

// Subscription is the client side of one Watch stream.
type Subscription struct {
	stream grpc.ClientStream
}

// Watch opens a steering feed stream on conn. A maxFrames of 0 streams until
// ctx is cancelled or the server stops.
func Watch(ctx context.Context, conn grpc.ClientConnInterface, maxFrames int) (*Subscription, error) {
	stream, err := conn.NewStream(ctx, &serviceDesc.Streams[0], watchMethod)
	if err != nil {
		return nil, err
	}
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"max_frames": structpb.NewNumberValue(float64(maxFrames)),
	}}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &Subscription{stream: stream}, nil
}

// Recv blocks for the next update. It returns io.EOF once the server has
// sent the requested number of frames.
func (s *Subscription) Recv() (Update, error) {
	m := new(structpb.Struct)
	if err := s.stream.RecvMsg(m); err != nil {
		return Update{}, err
	}
	return UpdateFromStruct(m)
}
