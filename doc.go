// Package guardkit provides a hierarchy-based role and permission
// authorization engine for HTTP services.
//
// GuardKit answers one question on every request: is the caller's role
// allowed to perform this action? It combines a fixed role hierarchy
// (a total order from least to most privileged) with a database-backed
// permission catalog and a role-to-permission assignment store.
//
// # Core Concepts
//
// Hierarchy: An ordered list of role names from lowest to highest
// privilege, fixed at construction time. Rank comparison drives the
// "is at least" and "can manage" predicates. Roles outside the table
// rank below everything and fail every check.
//
// Permission: A named capability key like "manage_orders". Keys are
// normalized (trimmed, lowercased, whitespace collapsed to underscores)
// and stored in a catalog with a label and description.
//
// Assignment: A (role, permission key) pair. A role's permission set is
// only ever changed by replacing it wholesale, so the set a role holds
// is always exactly the last full set submitted.
//
// Principal: The authenticated caller, resolved per request from a
// bearer credential by an IdentityResolver you provide.
//
// # Basic Usage
//
//	// 1. Define the hierarchy (at application startup)
//	hierarchy := guardkit.NewHierarchy("customer", "employee", "owner", "admin")
//
//	// 2. Create the service
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := guardkit.NewService(db, hierarchy,
//	    guardkit.WithDirectory(userStore))
//
//	// 3. Run migrations
//	db.Migrate(ctx, service.Migrations())
//
//	// 4. Build the per-request authorizer
//	authorizer := guardkit.NewAuthorizer(tokenResolver, service.Assignments(), hierarchy)
//
//	// 5. Check access
//	actx := authorizer.Authenticate(ctx, bearerToken)
//	if d := authorizer.RequireAllPermissions(actx, "manage_orders"); !d.Allowed {
//	    // denied, d.Reason says why
//	}
//
// # Middleware Usage
//
//	mw := guardkit.NewMiddleware(authorizer)
//
//	router.With(mw.RequireMinimumRank("employee")).
//	    Get("/staff/orders", listOrdersHandler)
//
//	router.With(mw.RequirePermissions("manage_orders")).
//	    Post("/staff/orders", createOrderHandler)
//
// Gates compose by AND: stack as many as a route needs, every one must
// pass. There is no OR gate; a route that accepts "rank or permission"
// is two routes.
//
// # Enforcement Rules
//
//   - Unauthenticated contexts fail every gate. A missing credential and
//     an invalid one produce the same outcome, so callers cannot probe
//     which accounts exist.
//   - The top-ranked role passes every permission gate without holding a
//     single catalog row. The bypass is explicit in RequireAllPermissions
//     rather than seeded data, so it cannot drift.
//   - A role can manage strictly lower-ranked roles only; the top role
//     manages everyone. No role manages a peer or itself.
//   - If the assignment store is unreachable the context carries an empty
//     permission set: permission gates deny, rank gates keep working.
//
// # Management
//
// Role and permission administration goes through Service, and is itself
// access-controlled: every management call requires the caller to meet
// the configured management floor rank, and reassigning a user's role
// requires the actor to outrank both the role the user holds and the one
// being assigned. The sole remaining holder of the top role can never be
// demoted or deleted through the service.
//
// All management mutations are written to an audit log (actor, action,
// affected role, permission keys, request id) inside the same
// transaction scope as the change itself.
package guardkit
