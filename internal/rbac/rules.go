package rbac

// Default policy. Learners practice and see their own results; coaches manage
// chapters and see everyone's; admin bypasses checks entirely.
var RolePermissions = map[string][]string{
	"learner": {
		"chapter:view",
		"session:start",
		"session:view-own",
		"attempt:submit",
		"report:view-own",
		"user:change_password",
	},
	"coach": {
		"chapter:view",
		"chapter:manage",
		"session:start",
		"session:view-all",
		"attempt:submit",
		"report:view-all",
		"users:list",
		"users:bulk_upsert",
		"user:change_password",
		"audit:view",
	},
	"admin": {
		"*", // everything
	},
}
