package types

import (
	"fmt"
	"strconv"
	"strings"

	abci "github.com/cometbft/cometbft/abci/types"
)

const (
	EventProjectCreatedType    = "project_created"
	EventRoundCreatedType      = "round_created"
	EventContributeType        = "contribute"
	EventProposalCanceledType  = "proposal_canceled"
	EventProposalWithdrawnType = "proposal_withdrawn"
	EventProposalApprovedType  = "proposal_approved"
	EventRoundCanceledType     = "round_canceled"
	EventFundType              = "fund"
	EventRoundFinalizedType    = "round_finalized"
)

type EventProjectCreated struct {
	ProjectIndex uint64 `json:"projectIndex"`
	Name         string `json:"name"`
	Owner        string `json:"owner"`
	Height       uint64 `json:"height"`
}

func EncodeEventProjectCreated(event *EventProjectCreated) abci.Event {
	return abci.Event{
		Type: EventProjectCreatedType,
		Attributes: []abci.EventAttribute{
			{Key: "project", Value: fmt.Sprintf("%v", event.ProjectIndex), Index: true},
			{Key: "name", Value: event.Name, Index: false},
			{Key: "owner", Value: event.Owner, Index: true},
			{Key: "height", Value: fmt.Sprintf("%v", event.Height), Index: false},
		},
	}
}

func DecodeEventProjectCreated(originEvent abci.Event) *EventProjectCreated {
	event := &EventProjectCreated{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "project":
			project, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ProjectIndex = project
		case "name":
			event.Name = v.Value
		case "owner":
			event.Owner = v.Value
		case "height":
			height, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Height = height
		}
	}
	return event
}

type EventRoundCreated struct {
	RoundIndex     uint64   `json:"roundIndex"`
	Start          uint64   `json:"start"`
	End            uint64   `json:"end"`
	MatchingFund   uint64   `json:"matchingFund"`
	ProjectIndexes []uint64 `json:"projectIndexes"`
}

func EncodeEventRoundCreated(event *EventRoundCreated) abci.Event {
	indexes := make([]string, len(event.ProjectIndexes))
	for i := range event.ProjectIndexes {
		indexes[i] = fmt.Sprintf("%v", event.ProjectIndexes[i])
	}
	return abci.Event{
		Type: EventRoundCreatedType,
		Attributes: []abci.EventAttribute{
			{Key: "round", Value: fmt.Sprintf("%v", event.RoundIndex), Index: true},
			{Key: "start", Value: fmt.Sprintf("%v", event.Start), Index: false},
			{Key: "end", Value: fmt.Sprintf("%v", event.End), Index: false},
			{Key: "matchingFund", Value: fmt.Sprintf("%v", event.MatchingFund), Index: false},
			{Key: "projects", Value: strings.Join(indexes, ","), Index: false},
		},
	}
}

func DecodeEventRoundCreated(originEvent abci.Event) *EventRoundCreated {
	event := &EventRoundCreated{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "round":
			round, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.RoundIndex = round
		case "start":
			start, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Start = start
		case "end":
			end, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.End = end
		case "matchingFund":
			fund, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.MatchingFund = fund
		case "projects":
			for _, s := range strings.Split(v.Value, ",") {
				index, err := strconv.ParseUint(s, 10, 64)
				if err != nil {
					return nil
				}
				event.ProjectIndexes = append(event.ProjectIndexes, index)
			}
		}
	}
	return event
}

type EventContribute struct {
	Account      string `json:"account"`
	ProjectIndex uint64 `json:"projectIndex"`
	RoundIndex   uint64 `json:"roundIndex"`
	Value        uint64 `json:"value"`
	Height       uint64 `json:"height"`
}

func EncodeEventContribute(event *EventContribute) abci.Event {
	return abci.Event{
		Type: EventContributeType,
		Attributes: []abci.EventAttribute{
			{Key: "account", Value: event.Account, Index: true},
			{Key: "project", Value: fmt.Sprintf("%v", event.ProjectIndex), Index: true},
			{Key: "round", Value: fmt.Sprintf("%v", event.RoundIndex), Index: true},
			{Key: "value", Value: fmt.Sprintf("%v", event.Value), Index: false},
			{Key: "height", Value: fmt.Sprintf("%v", event.Height), Index: false},
		},
	}
}

func DecodeEventContribute(originEvent abci.Event) *EventContribute {
	event := &EventContribute{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "account":
			event.Account = v.Value
		case "project":
			project, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ProjectIndex = project
		case "round":
			round, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.RoundIndex = round
		case "value":
			value, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Value = value
		case "height":
			height, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Height = height
		}
	}
	return event
}

type EventProposalCanceled struct {
	RoundIndex   uint64 `json:"roundIndex"`
	ProjectIndex uint64 `json:"projectIndex"`
}

func EncodeEventProposalCanceled(event *EventProposalCanceled) abci.Event {
	return abci.Event{
		Type: EventProposalCanceledType,
		Attributes: []abci.EventAttribute{
			{Key: "round", Value: fmt.Sprintf("%v", event.RoundIndex), Index: true},
			{Key: "project", Value: fmt.Sprintf("%v", event.ProjectIndex), Index: true},
		},
	}
}

func DecodeEventProposalCanceled(originEvent abci.Event) *EventProposalCanceled {
	event := &EventProposalCanceled{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "round":
			round, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.RoundIndex = round
		case "project":
			project, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ProjectIndex = project
		}
	}
	return event
}

type EventProposalWithdrawn struct {
	RoundIndex         uint64 `json:"roundIndex"`
	ProjectIndex       uint64 `json:"projectIndex"`
	MatchingFund       uint64 `json:"matchingFund"`
	ContributionAmount uint64 `json:"contributionAmount"`
}

func EncodeEventProposalWithdrawn(event *EventProposalWithdrawn) abci.Event {
	return abci.Event{
		Type: EventProposalWithdrawnType,
		Attributes: []abci.EventAttribute{
			{Key: "round", Value: fmt.Sprintf("%v", event.RoundIndex), Index: true},
			{Key: "project", Value: fmt.Sprintf("%v", event.ProjectIndex), Index: true},
			{Key: "matchingFund", Value: fmt.Sprintf("%v", event.MatchingFund), Index: false},
			{Key: "contributionAmount", Value: fmt.Sprintf("%v", event.ContributionAmount), Index: false},
		},
	}
}

func DecodeEventProposalWithdrawn(originEvent abci.Event) *EventProposalWithdrawn {
	event := &EventProposalWithdrawn{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "round":
			round, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.RoundIndex = round
		case "project":
			project, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ProjectIndex = project
		case "matchingFund":
			fund, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.MatchingFund = fund
		case "contributionAmount":
			amount, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ContributionAmount = amount
		}
	}
	return event
}

type EventProposalApproved struct {
	RoundIndex           uint64 `json:"roundIndex"`
	ProjectIndex         uint64 `json:"projectIndex"`
	WithdrawalExpiration uint64 `json:"withdrawalExpiration"`
}

func EncodeEventProposalApproved(event *EventProposalApproved) abci.Event {
	return abci.Event{
		Type: EventProposalApprovedType,
		Attributes: []abci.EventAttribute{
			{Key: "round", Value: fmt.Sprintf("%v", event.RoundIndex), Index: true},
			{Key: "project", Value: fmt.Sprintf("%v", event.ProjectIndex), Index: true},
			{Key: "withdrawalExpiration", Value: fmt.Sprintf("%v", event.WithdrawalExpiration), Index: false},
		},
	}
}

func DecodeEventProposalApproved(originEvent abci.Event) *EventProposalApproved {
	event := &EventProposalApproved{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "round":
			round, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.RoundIndex = round
		case "project":
			project, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ProjectIndex = project
		case "withdrawalExpiration":
			expiration, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.WithdrawalExpiration = expiration
		}
	}
	return event
}

type EventRoundCanceled struct {
	RoundIndex uint64 `json:"roundIndex"`
}

func EncodeEventRoundCanceled(event *EventRoundCanceled) abci.Event {
	return abci.Event{
		Type: EventRoundCanceledType,
		Attributes: []abci.EventAttribute{
			{Key: "round", Value: fmt.Sprintf("%v", event.RoundIndex), Index: true},
		},
	}
}

func DecodeEventRoundCanceled(originEvent abci.Event) *EventRoundCanceled {
	event := &EventRoundCanceled{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "round":
			round, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.RoundIndex = round
		}
	}
	return event
}

type EventFund struct {
	Funder string `json:"funder"`
	Amount uint64 `json:"amount"`
	Height uint64 `json:"height"`
}

func EncodeEventFund(event *EventFund) abci.Event {
	return abci.Event{
		Type: EventFundType,
		Attributes: []abci.EventAttribute{
			{Key: "funder", Value: event.Funder, Index: true},
			{Key: "amount", Value: fmt.Sprintf("%v", event.Amount), Index: false},
			{Key: "height", Value: fmt.Sprintf("%v", event.Height), Index: false},
		},
	}
}

func DecodeEventFund(originEvent abci.Event) *EventFund {
	event := &EventFund{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "funder":
			event.Funder = v.Value
		case "amount":
			amount, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Amount = amount
		case "height":
			height, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Height = height
		}
	}
	return event
}

type EventRoundFinalized struct {
	RoundIndex uint64 `json:"roundIndex"`
}

func EncodeEventRoundFinalized(event *EventRoundFinalized) abci.Event {
	return abci.Event{
		Type: EventRoundFinalizedType,
		Attributes: []abci.EventAttribute{
			{Key: "round", Value: fmt.Sprintf("%v", event.RoundIndex), Index: true},
		},
	}
}

func DecodeEventRoundFinalized(originEvent abci.Event) *EventRoundFinalized {
	event := &EventRoundFinalized{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "round":
			round, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.RoundIndex = round
		}
	}
	return event
}
