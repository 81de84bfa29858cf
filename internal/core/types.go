package core

import "ticketdesk/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Organization       = domain.Organization
	User               = domain.User
	Event              = domain.Event
	Category           = domain.Category
	Table              = domain.Table
	Sale               = domain.Sale
	HistoryEntry       = domain.HistoryEntry
	SaaSTransaction    = domain.SaaSTransaction
	SaaSExpense        = domain.SaaSExpense
	Announcement       = domain.Announcement
	Notification       = domain.Notification
	Permission         = domain.Permission
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
)

const (
	EntityOrganization    = domain.EntityOrganization
	EntityUser            = domain.EntityUser
	EntityEvent           = domain.EntityEvent
	EntityTable           = domain.EntityTable
	EntitySale            = domain.EntitySale
	EntitySaaSTransaction = domain.EntitySaaSTransaction
	EntitySaaSExpense     = domain.EntitySaaSExpense
	EntityAnnouncement    = domain.EntityAnnouncement
	EntityNotification    = domain.EntityNotification
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine { return domain.NewRulesEngine() }
