// Package conversation ведёт диалог оформления заказа: конечный автомат
// по состояниям сессии и диспетчер, который сериализует события одного чата.
package conversation

import (
	"fmt"
)

type State int

const (
	StateInfo State = iota
	StateReuseQuestion
	StateGetPhone
	StateGetName
	StateGetStreet
	StateGetHouse
	StateGetApartment
	StateGetEntrance
	StateSelectServices
	StateConfirm
	StatePaymentQuestion
	StateDone
	StateCanceled
)

var stateNames = map[State]string{
	StateInfo:            "INFO",
	StateReuseQuestion:   "REUSE_QUESTION",
	StateGetPhone:        "GET_PHONE",
	StateGetName:         "GET_NAME",
	StateGetStreet:       "GET_STREET",
	StateGetHouse:        "GET_HOUSE",
	StateGetApartment:    "GET_APARTMENT",
	StateGetEntrance:     "GET_ENTRANCE",
	StateSelectServices:  "SELECT_SERVICES",
	StateConfirm:         "CONFIRM",
	StatePaymentQuestion: "PAYMENT_QUESTION",
	StateDone:            "DONE",
	StateCanceled:        "CANCELED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal - сессия в этом состоянии удаляется из хранилища.
func (s State) Terminal() bool {
	return s == StateDone || s == StateCanceled
}

func (s State) valid() bool {
	_, ok := stateNames[s]
	return ok
}

func (s State) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("неизвестное состояние %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("неизвестное состояние %q", string(text))
}
