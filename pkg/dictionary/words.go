package dictionary

// defaultWords are common API path segments tried when no wordlist is given.
var defaultWords = []string{
	"admin", "login", "logout", "register", "config", "settings", "profile",
	"dashboard", "account", "users", "products", "orders", "reports", "data",
	"info", "create", "update", "delete", "search", "list", "detail", "status",
	"metrics", "stats", "analytics", "session", "token", "verify", "reset",
	"password", "security", "permissions", "roles", "notifications", "events",
	"logs", "history", "backup", "export", "import", "sync", "validate",
	"preferences", "categories", "items", "cart", "checkout", "payment",
	"invoice", "shipping", "tracking", "review", "rating", "feedback", "customer",
	"support", "help", "contact", "faq", "terms", "privacy", "policy",
	"subscription", "plan", "trial", "upgrade", "downgrade", "usage", "limits",
	"quota", "billing", "receipt", "refund", "order-history", "wishlist",
	"favorites", "recommendations", "offer", "coupon", "discount", "loyalty",
	"points", "gift", "voucher", "promotion", "news", "updates", "blog",
	"article", "announcement", "message", "chat", "forum", "community", "group",
	"team", "project", "task", "milestone", "calendar", "event", "schedule",
	"appointment", "reservation", "booking", "ticket", "incident", "alert",
	"emergency", "priority", "escalation", "assignment", "resource", "inventory",
	"warehouse", "supply", "demand", "forecast", "performance", "control",
	"panel", "manage", "manager", "automation", "integration", "connector", "api",
	"version", "v1", "v2", "public", "private", "internal", "external",
	"development", "staging", "production", "test", "debug", "configurations",
	"properties", "locale", "language", "timezone", "region", "country", "city",
	"district", "neighborhood", "address", "location", "coordinates", "map",
	"geocode", "find", "lookup", "reporting", "insights", "statistics", "graph",
	"chart", "trend", "document", "documents", "doc", "docs", "manual", "manuals",
	"guide", "guides", "tutorial", "tutorials", "whitepaper", "whitepapers",
	"academic", "academics", "journal", "journals", "articles", "paper", "papers",
	"publication", "publications", "book", "books", "library", "libraries",
	"thesis", "dissertation", "dissertations", "research", "study", "studies",
	"archive", "archives", "catalog", "catalogue", "reference", "references",
	"index", "indexes", "bibliography", "bibliographies", "handbook", "handbooks",
	"notes", "reviews", "analyses", "case-study", "case-studies", "overview",
	"summary", "abstract", "abstracts", "edition", "editions", "volume",
	"volumes", "periodical", "periodicals", "magazine", "magazines", "series",
	"encyclopedia", "encyclopedias", "compendium", "compendiums", "repository",
	"repositories", "database", "databases", "metadata", "curation", "curated",
	"collection", "collections", "compilation", "compilations", "shelf",
	"shelves", "cataloging", "cataloguing", "indexing", "monograph", "monographs",
	"treatise", "treatises", "discourse", "excerpts", "extracts", "manuscript",
	"manuscripts", "transcript", "transcripts", "dossier", "dossiers",
}

// DefaultWords returns a copy of the built-in wordlist.
func DefaultWords() []string {
	out := make([]string, len(defaultWords))
	copy(out, defaultWords)
	return out
}
