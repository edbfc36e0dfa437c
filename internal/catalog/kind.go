package catalog

import "mentorbook/internal/apperr"

// Kind is the closed set of service offerings.
type Kind string

const (
	KindCall           Kind = "call"
	KindAsyncMessage   Kind = "async-message"
	KindWorkshop       Kind = "workshop"
	KindDigitalProduct Kind = "digital-product"
	KindBundle         Kind = "bundle"
)

type KindInfo struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	// TimeBoxed kinds need a positive duration.
	TimeBoxed bool `json:"time_boxed"`
}

var kinds = []Kind{KindCall, KindAsyncMessage, KindWorkshop, KindDigitalProduct, KindBundle}

var kindTable = map[Kind]KindInfo{
	KindCall:           {Label: "1:1 Call", Icon: "video", TimeBoxed: true},
	KindAsyncMessage:   {Label: "Priority DM", Icon: "message-square", TimeBoxed: false},
	KindWorkshop:       {Label: "Workshop", Icon: "users", TimeBoxed: true},
	KindDigitalProduct: {Label: "Digital Product", Icon: "file-text", TimeBoxed: false},
	KindBundle:         {Label: "Package", Icon: "package", TimeBoxed: false},
}

var ErrUnknownKind = apperr.New(apperr.KindValidation, "unknown service kind")

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := kindTable[k]; !ok {
		return "", apperr.Wrapf(ErrUnknownKind, "unknown service kind %q", s)
	}
	return k, nil
}

func (k Kind) Info() (KindInfo, bool) {
	info, ok := kindTable[k]
	return info, ok
}

func (k Kind) Valid() bool {
	_, ok := kindTable[k]
	return ok
}

// Kinds lists every kind in display order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}
