package domain

import "fmt"

// DuplicateIDError aborts a glossary build when two entities share an id.
// The reload attempt fails and the prior snapshot remains authoritative.
type DuplicateIDError struct {
	ID string
}

func (e DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate glossary entity id %s", e.ID)
}

// EmptyGlossaryError aborts a glossary build given zero entities.
type EmptyGlossaryError struct{}

func (e EmptyGlossaryError) Error() string {
	return "glossary contains no entities"
}

// InvalidAttributeError is returned by the normalizer when a required
// attribute is absent. It is fatal to the single record, never to a batch.
type InvalidAttributeError struct {
	Attribute string
}

func (e InvalidAttributeError) Error() string {
	return fmt.Sprintf("required attribute %s is absent", e.Attribute)
}
