package domain

// Provinces is the closed list of the 26 provinces a contributor may declare.
var Provinces = []string{
	"Kinshasa", "Kongo-Central", "Kwango", "Kwilu", "Mai-Ndombe",
	"Kasaï", "Kasaï-Central", "Kasaï-Oriental", "Lomami", "Sankuru",
	"Maniema", "Sud-Kivu", "Nord-Kivu", "Ituri", "Haut-Uélé", "Bas-Uélé",
	"Tshopo", "Tshuapa", "Mongala", "Nord-Ubangi", "Sud-Ubangi", "Équateur",
	"Haut-Lomami", "Lualaba", "Haut-Katanga", "Tanganyika",
}

var provinceSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Provinces))
	for _, p := range Provinces {
		m[p] = struct{}{}
	}
	return m
}()

func IsValidProvince(p string) bool {
	_, ok := provinceSet[p]
	return ok
}
