package inject

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	appconfig "github.com/dmorgan81/imagegen/internal/config"
	"github.com/dmorgan81/imagegen/internal/handler"
	"github.com/dmorgan81/imagegen/internal/image"
	"github.com/dmorgan81/imagegen/internal/log"
	"github.com/dmorgan81/imagegen/internal/param"
	"github.com/samber/do"
	"github.com/samber/lo"
)

// Setup builds the relay graph and the AWS clients the CLI exports with.
// Providers are lazy: AWS config is only loaded when a client is invoked.
func Setup(ctx context.Context, cfg *appconfig.Config) *do.Injector {
	log := log.FromContextOrDiscard(ctx)

	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			log.Debug(fmt.Sprintf(format, args...))
		},
	})
	do.Provide[aws.Config](injector, func(i *do.Injector) (aws.Config, error) {
		return config.LoadDefaultConfig(ctx)
	})
	do.Provide[*ssm.Client](injector, func(i *do.Injector) (*ssm.Client, error) {
		return ssm.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*s3.Client](injector, func(i *do.Injector) (*s3.Client, error) {
		return s3.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.ProvideValue[*http.Client](injector, &http.Client{Timeout: cfg.GatewayTimeout})

	do.Provide[param.Fetcher](injector, func(i *do.Injector) (param.Fetcher, error) {
		if cfg.KeyParam != "" {
			return param.NewParameterStoreFetcher(i)
		}
		return param.NewEnvFetcher(), nil
	})
	do.ProvideNamedValue[string](injector, "key_name", lo.Ternary(cfg.KeyParam != "", cfg.KeyParam, cfg.KeyEnv))
	do.ProvideNamedValue[string](injector, "gateway_url", cfg.GatewayURL)
	do.ProvideNamedValue[string](injector, "gateway_model", cfg.GatewayModel)
	do.Provide[image.Generator](injector, image.NewGatewayGenerator)

	do.Provide[*handler.Handler](injector, handler.NewHandler)

	return injector
}
