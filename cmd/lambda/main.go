// Command lambda runs the connection graph service behind API Gateway. The
// edge authorizer validates the Supabase JWT and forwards the subject as
// X-Member-ID; the router trusts that header.
package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/go-chi/chi/v5"

	"kinship-backend/internal/di"
)

var (
	chiLambda *chiadapter.ChiLambdaV2
	container *di.Container
)

func init() {
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	container, err = di.NewContainer(ctx)
	if err != nil {
		log.Fatalf("failed to initialize container: %v", err)
	}

	outer := chi.NewRouter()
	outer.Use(identityHeader)
	outer.Mount("/", container.Router)
	chiLambda = chiadapter.NewV2(outer)

	container.Logger.Sugar().Infow("cold start complete",
		"duration", time.Since(start).String())
}

// identityHeader copies the authorizer's subject claim into the member
// identity header so the shared router middleware works in both deployments.
// A forged inbound header is overwritten, never trusted.
func identityHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del("X-Member-ID")
		if proxyCtx, ok := core.GetAPIGatewayV2ContextFromContext(r.Context()); ok {
			if sub, ok := proxyCtx.Authorizer.Lambda["sub"].(string); ok && sub != "" {
				r.Header.Set("X-Member-ID", sub)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return chiLambda.ProxyWithContextV2(ctx, req)
}

func main() {
	lambda.Start(handler)
}
