package types

// Provinces lists the fixed administrative regions users register in
var Provinces = []string{
	"Azua",
	"Bahoruco",
	"Barahona",
	"Dajabón",
	"Distrito Nacional",
	"Duarte",
	"El Seibo",
	"Elías Piña",
	"Espaillat",
	"Hato Mayor",
	"Hermanas Mirabal",
	"Independencia",
	"La Altagracia",
	"La Romana",
	"La Vega",
	"María Trinidad Sánchez",
	"Monseñor Nouel",
	"Monte Cristi",
	"Monte Plata",
	"Pedernales",
	"Peravia",
	"Puerto Plata",
	"Samaná",
	"San Cristóbal",
	"San José de Ocoa",
	"San Juan",
	"San Pedro de Macorís",
	"Sánchez Ramírez",
	"Santiago",
	"Santiago Rodríguez",
	"Santo Domingo",
	"Valverde",
}

var provinceSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Provinces))
	for _, p := range Provinces {
		m[p] = struct{}{}
	}
	return m
}()

// IsProvince reports whether name is one of the fixed provinces
func IsProvince(name string) bool {
	_, ok := provinceSet[name]
	return ok
}
