package schema

// Key names a top-level field of the dashboard context document
type Key = string

const (
	KeyQueryData         Key = "queryData"
	KeySessionAttributes Key = "sessionAttributes"
	KeySessionTimeout    Key = "sessionTimeout"
	KeyServerLocalDate   Key = "serverLocalDate"
	KeyServerUTCDate     Key = "serverUTCDate"
	KeyUser              Key = "user"
	KeyLocale            Key = "locale"
	KeyPath              Key = "path"
	KeySolution          Key = "solution"
	KeyRoles             Key = "roles"
	KeyIsAdmin           Key = "isAdmin"
	KeyFullPath          Key = "fullPath"
	KeyFile              Key = "file"
	KeyParams            Key = "params"
)

// Request parameter names understood by the context builder
const (
	ParamSolution = "solution"
	ParamPath     = "path"
	ParamFile     = "file"
	ParamAction   = "action"
	ParamView     = "view"
)
