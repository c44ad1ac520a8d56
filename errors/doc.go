/*
Package errors provides semantic error types for entitymapper.

The taxonomy separates caller misuse from store failures so callers can branch on cause:

	var (
	    ErrPersistence      = errors.New("persistence error")        // key lifecycle misuse
	    ErrResolution       = errors.New("unknown property")         // typo in a filter
	    ErrDecode           = errors.New("document decode failed")   // one document, not the page
	    ErrUnregistered     = errors.New("no mapping registered for type")
	    ErrNoEntityToUpdate = errors.New("no entity to update")      // produced by stores
	)

Usage:

	id, err := repo.Insert(ctx, &user)
	if err != nil {
	    if errors.IsPersistence(err) {
	        // the entity already had a key
	    }
	    return err
	}

	err = repo.Update(ctx, &user)
	if errors.IsNoEntityToUpdate(err) {
	    // the store had no document at that key; the error is the store's own
	}

PersistenceError messages are stable and part of the contract:
"Cannot insert instance that already has key set" and
"Cannot update an entity that has key null".
*/
package errors
