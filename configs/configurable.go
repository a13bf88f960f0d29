package configs

type Configurable interface {
	ConfigExpr() string
}
