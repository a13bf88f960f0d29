package generators

import (
	"os"

	"github.com/reusee/taiplan/cmds"
	"github.com/reusee/taiplan/configs"
	"github.com/reusee/taiplan/logs"
	"github.com/reusee/taiplan/vars"
)

var modelNameFlag = cmds.Var[string]("-model")

type DefaultModelName string

var _ configs.Configurable = DefaultModelName("")

func (d DefaultModelName) ConfigExpr() string {
	return "DefaultModelName"
}

func (Module) DefaultModelName(
	loader configs.Loader,
	logger logs.Logger,
) (ret DefaultModelName) {
	defer func() {
		logger.Info("default model", "name", ret)
	}()
	return vars.FirstNonZero(
		DefaultModelName(*modelNameFlag),
		configs.First[DefaultModelName](loader, "model_name"),
		configs.First[DefaultModelName](loader, "model"),
		DefaultModelName(os.Getenv("OPENAI_MODEL")),
		DefaultModelName("gpt-4o-mini"),
	)
}

type DefaultBaseURL string

var _ configs.Configurable = DefaultBaseURL("")

func (d DefaultBaseURL) ConfigExpr() string {
	return "DefaultBaseURL"
}

func (Module) DefaultBaseURL(
	loader configs.Loader,
) DefaultBaseURL {
	return vars.FirstNonZero(
		configs.First[DefaultBaseURL](loader, "base_url"),
		configs.First[DefaultBaseURL](loader, "endpoint"),
		DefaultBaseURL(os.Getenv("OPENAI_BASE_URL")),
		DefaultBaseURL("https://api.openai.com/v1"),
	)
}

type APIKey string

var _ configs.Configurable = APIKey("")

func (a APIKey) ConfigExpr() string {
	return "APIKey"
}

func (Module) APIKey(
	loader configs.Loader,
) APIKey {
	return vars.FirstNonZero(
		configs.First[APIKey](loader, "api_key"),
		APIKey(os.Getenv("OPENAI_API_KEY")),
	)
}
