package preload

// Snapshot of the Chromium HSTS preload list, trimmed to registrable
// domains. Regenerate with scripts/update-preload when refreshing; the full
// list is far larger, this carries the high-traffic cut the scanner is most
// likely to meet plus everything the test fixtures rely on.
var entries = map[string]Entry{
	"accounts.google.com": {Name: "accounts.google.com", IncludeSubDomains: true},
	"addons.mozilla.org":  {Name: "addons.mozilla.org", IncludeSubDomains: true},
	"aladdinschools.appspot.com": {Name: "aladdinschools.appspot.com"},
	"app.recurly.com":     {Name: "app.recurly.com", IncludeSubDomains: true},
	"bank.gov":            {Name: "bank.gov", IncludeSubDomains: true},
	"bugzilla.mozilla.org": {Name: "bugzilla.mozilla.org", IncludeSubDomains: true},
	"chrome.google.com":   {Name: "chrome.google.com", IncludeSubDomains: true},
	"cloudflare.com":      {Name: "cloudflare.com", IncludeSubDomains: true},
	"dev.twitter.com":     {Name: "dev.twitter.com", IncludeSubDomains: true},
	"dropbox.com":         {Name: "dropbox.com", IncludeSubDomains: true},
	"duckduckgo.com":      {Name: "duckduckgo.com", IncludeSubDomains: true},
	"facebook.com":        {Name: "facebook.com"},
	"fastmail.com":        {Name: "fastmail.com", IncludeSubDomains: true},
	"github.com":          {Name: "github.com", IncludeSubDomains: true},
	"gitlab.com":          {Name: "gitlab.com", IncludeSubDomains: true},
	"gmail.com":           {Name: "gmail.com", IncludeSubDomains: true},
	"google.com":          {Name: "google.com"},
	"hackerone.com":       {Name: "hackerone.com", IncludeSubDomains: true},
	"id.atlassian.com":    {Name: "id.atlassian.com", IncludeSubDomains: true},
	"keybase.io":          {Name: "keybase.io", IncludeSubDomains: true},
	"lastpass.com":        {Name: "lastpass.com"},
	"letsencrypt.org":     {Name: "letsencrypt.org", IncludeSubDomains: true},
	"login.yahoo.com":     {Name: "login.yahoo.com", IncludeSubDomains: true},
	"mail.google.com":     {Name: "mail.google.com", IncludeSubDomains: true},
	"mega.nz":             {Name: "mega.nz", IncludeSubDomains: true},
	"mozilla.org":         {Name: "mozilla.org", IncludeSubDomains: true},
	"neg9.org":            {Name: "neg9.org", IncludeSubDomains: true},
	"paypal.com":          {Name: "paypal.com"},
	"proton.me":           {Name: "proton.me", IncludeSubDomains: true},
	"signal.org":          {Name: "signal.org", IncludeSubDomains: true},
	"stripe.com":          {Name: "stripe.com", IncludeSubDomains: true},
	"torproject.org":      {Name: "torproject.org", IncludeSubDomains: true},
	"twitter.com":         {Name: "twitter.com"},
	"usenix.org":          {Name: "usenix.org", IncludeSubDomains: true},
	"vimeo.com":           {Name: "vimeo.com", IncludeSubDomains: true},
	"wikipedia.org":       {Name: "wikipedia.org", IncludeSubDomains: true},
	"wire.com":            {Name: "wire.com", IncludeSubDomains: true},
	"www.gov.uk":          {Name: "www.gov.uk"},
	"xero.com":            {Name: "xero.com", IncludeSubDomains: true},
}
