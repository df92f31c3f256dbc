package backend

// Back office REST paths used by the admin UI. The proxy forwards any path;
// these are named because the cache defaults refer to them.
const (
	ReferenceDataPath      = "/roboadvising/get_general_reference_data/"
	PortfoliosPath         = "/roboadvising/portfolios/"
	RebalancePortfolioPath = "/roboadvising/portfolios/rebalance/"
	ViewModelPortfolioPath = "/roboadvising/view_robo_menu_enter_model_portfolio/"
	AllStrategiesPath      = "/roboadvising/get_all_strategy/"
	CreateStrategyPath     = "/roboadvising/create_strategy/"
	UserProfilePath        = "/user/profile"
)

// BrokerParam is the query parameter that scopes portfolio calls to one
// broker.
const BrokerParam = "broker"

// DefaultCachePaths are the read-mostly lookups worth caching per token.
var DefaultCachePaths = []string{ReferenceDataPath, AllStrategiesPath}
