package match

var Restaurants = []string{
	"小院私厨", "花开半夏", "老街烧烤", "素心小馆", "渔歌唱晚",
	"辣妹子川菜", "和风亭", "法式小酒馆", "胡同涮肉", "云端茶室",
}

var Budgets = []string{"人均50-80", "人均80-120", "人均120-200", "人均200+"}

var PaymentRules = []string{"AA制", "轮流请客", "赢家买单", "随心付"}

// Picker selects an index in [0, n).
type Picker interface {
	IntN(n int) int
}

type Venue struct {
	RestaurantName string
	Budget         string
	PaymentRule    string
}

func PickVenue(p Picker) Venue {
	return Venue{
		RestaurantName: pick(p, Restaurants),
		Budget:         pick(p, Budgets),
		PaymentRule:    pick(p, PaymentRules),
	}
}

func pick(p Picker, opts []string) string {
	i := p.IntN(len(opts))
	if i < 0 || i >= len(opts) {
		i = 0
	}
	return opts[i]
}
