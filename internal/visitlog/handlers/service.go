package handlers

import (
	"context"

	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "visitlog.v1.VisitLogService"

// VisitLogServiceServer is the server API of VisitLogService. Requests are
// JSON-shaped Structs; downloads are returned as HttpBody.
type VisitLogServiceServer interface {
	ListCompanies(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SortCompanies(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCompany(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateCompany(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateCompany(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteCompany(context.Context, *structpb.Struct) (*structpb.Struct, error)

	ListWorkLogs(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetWorkLog(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateWorkLog(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateWorkLog(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteWorkLog(context.Context, *structpb.Struct) (*structpb.Struct, error)

	ExportCompanies(context.Context, *structpb.Struct) (*httpbody.HttpBody, error)
	ExportWorkbook(context.Context, *structpb.Struct) (*httpbody.HttpBody, error)
	ImportCompanies(context.Context, *structpb.Struct) (*structpb.Struct, error)

	SaveDraft(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDraft(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteDraft(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// FullMethod returns the gRPC method path of a VisitLogService method.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// VisitLogServiceDesc describes VisitLogService for grpc.Server.RegisterService.
var VisitLogServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VisitLogServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListCompanies", VisitLogServiceServer.ListCompanies),
		unary("SortCompanies", VisitLogServiceServer.SortCompanies),
		unary("GetCompany", VisitLogServiceServer.GetCompany),
		unary("CreateCompany", VisitLogServiceServer.CreateCompany),
		unary("UpdateCompany", VisitLogServiceServer.UpdateCompany),
		unary("DeleteCompany", VisitLogServiceServer.DeleteCompany),
		unary("ListWorkLogs", VisitLogServiceServer.ListWorkLogs),
		unary("GetWorkLog", VisitLogServiceServer.GetWorkLog),
		unary("CreateWorkLog", VisitLogServiceServer.CreateWorkLog),
		unary("UpdateWorkLog", VisitLogServiceServer.UpdateWorkLog),
		unary("DeleteWorkLog", VisitLogServiceServer.DeleteWorkLog),
		unary("ExportCompanies", VisitLogServiceServer.ExportCompanies),
		unary("ExportWorkbook", VisitLogServiceServer.ExportWorkbook),
		unary("ImportCompanies", VisitLogServiceServer.ImportCompanies),
		unary("SaveDraft", VisitLogServiceServer.SaveDraft),
		unary("GetDraft", VisitLogServiceServer.GetDraft),
		unary("DeleteDraft", VisitLogServiceServer.DeleteDraft),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "visitlog/v1/visitlog.proto",
}

// RegisterVisitLogServiceServer registers srv on s.
func RegisterVisitLogServiceServer(s grpc.ServiceRegistrar, srv VisitLogServiceServer) {
	s.RegisterService(&VisitLogServiceDesc, srv)
}

func unary[Resp proto.Message](name string, call func(VisitLogServiceServer, context.Context, *structpb.Struct) (Resp, error)) grpc.MethodDesc {
	fullMethod := FullMethod(name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(VisitLogServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(VisitLogServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// VisitLogServiceClient is the client API of VisitLogService.
type VisitLogServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewVisitLogServiceClient(cc grpc.ClientConnInterface) *VisitLogServiceClient {
	return &VisitLogServiceClient{cc: cc}
}

// Call invokes a Struct-returning method by name.
func (c *VisitLogServiceClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Download invokes an HttpBody-returning method by name.
func (c *VisitLogServiceClient) Download(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*httpbody.HttpBody, error) {
	out := new(httpbody.HttpBody)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
