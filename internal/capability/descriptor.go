package capability

// Name identifies a capability: a named group of related gateway methods
// that may or may not exist in a given deployment.
type Name string

const (
	Connection     Name = "connection"
	Account        Name = "account"
	AccountHelper  Name = "account-helper"
	MarketInfo     Name = "market-info"
	Symbols        Name = "symbols"
	Charts         Name = "charts"
	Book           Name = "book"
	TradeFunctions Name = "trade-functions"
	Session        Name = "session"
	Terminal       Name = "terminal"
)

// Descriptor names a capability and the gRPC service paths it may live
// under across deployments. Services are tried in order; the first one the
// gateway implements wins.
type Descriptor struct {
	Name Name

	// Services lists fully-qualified service name aliases, newest first.
	Services []string

	// Probe is a cheap, side-effect-free method used to test presence.
	Probe string
}

// Table returns every capability descriptor known to the client, in
// resolution order. This is the single source of truth for capability
// discovery: the stub registry, the mode detector, and the login fallback
// all resolve through it.
func Table() []Descriptor {
	return []Descriptor{
		{Name: Connection, Services: []string{"mt5.Connection", "mt5_term_api.Connection"}, Probe: "CheckConnect"},
		{Name: Account, Services: []string{"mt5.Account", "mt5_term_api.Account"}, Probe: "AccountSummary"},
		{Name: AccountHelper, Services: []string{"mt5.AccountHelper", "mt5_term_api.AccountHelper"}, Probe: "Ping"},
		{Name: MarketInfo, Services: []string{"mt5.MarketInfo", "mt5_term_api.MarketInfo"}, Probe: "SymbolInfoTick"},
		{Name: Symbols, Services: []string{"mt5.Symbols", "mt5_term_api.Symbols"}, Probe: "SymbolsTotal"},
		{Name: Charts, Services: []string{"mt5.Charts", "mt5_term_api.Charts"}, Probe: "ChartsTotal"},
		{Name: Book, Services: []string{"mt5.MarketBook", "mt5_term_api.Book"}, Probe: "BookInfo"},
		{Name: TradeFunctions, Services: []string{"mt5.TradeFunctions", "mt5_term_api.Trade"}, Probe: "OrdersTotal"},
		{Name: Session, Services: []string{"mt5.Session", "mt5_term_api.Session"}, Probe: "SessionState"},
		{Name: Terminal, Services: []string{"mt5.Terminal", "mt5_term_api.Terminal"}, Probe: "IsAlive"},
	}
}

// RegistrySet returns the descriptors the stub registry attaches during
// connection establishment. Session and terminal are excluded here: the mode
// detector attaches them, and connection is resolved on demand by the
// low-level handshake.
func RegistrySet() []Descriptor {
	wanted := map[Name]bool{
		Account:        true,
		AccountHelper:  true,
		MarketInfo:     true,
		Symbols:        true,
		Charts:         true,
		Book:           true,
		TradeFunctions: true,
	}

	var set []Descriptor
	for _, d := range Table() {
		if wanted[d.Name] {
			set = append(set, d)
		}
	}
	return set
}

// Lookup returns the descriptor for the given capability name.
func Lookup(name Name) (Descriptor, bool) {
	for _, d := range Table() {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}
