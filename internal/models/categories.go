package models

// Categories is the fixed catalogue of service categories an album can
// belong to, in display order.
var Categories = []string{
	"Elétrica",
	"Hidráulica",
	"Pintura",
	"Montagem de Móveis",
	"Instalações",
	"Alvenaria e Drywall",
}

func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Service is the static marketing content shown on a service detail page.
type Service struct {
	Category        string
	Title           string
	Description     string
	LongDescription string
	Services        []string
	Benefits        []string
	Keywords        string
}

var services = map[string]Service{
	"Elétrica": {
		Category:        "Elétrica",
		Title:           "Serviços de Elétrica em São Paulo",
		Description:     "Eletricista profissional para instalações, manutenções e reparos elétricos residenciais e comerciais",
		LongDescription: "A Oriani Multissoluções oferece serviços elétricos completos com profissionais qualificados e experientes. Realizamos desde pequenos reparos até instalações elétricas completas, sempre com segurança e qualidade garantida.",
		Services: []string{
			"Instalação de tomadas e interruptores",
			"Troca de disjuntores e quadros elétricos",
			"Instalação de lustres e luminárias",
			"Instalação de chuveiros elétricos",
			"Reparo de curto-circuito",
			"Adequação de carga elétrica",
			"Instalação de ventiladores de teto",
			"Manutenção elétrica preventiva",
		},
		Benefits: []string{"Eletricistas certificados", "Atendimento de emergência", "Garantia dos serviços", "Materiais de qualidade"},
		Keywords: "eletricista, instalação elétrica, reparo elétrico, tomadas, disjuntores, quadro elétrico",
	},
	"Hidráulica": {
		Category:        "Hidráulica",
		Title:           "Serviços de Hidráulica e Encanamento",
		Description:     "Encanador profissional para reparos, instalações e manutenção hidráulica residencial e comercial",
		LongDescription: "Soluções completas em hidráulica com encanadores especializados. Atendemos vazamentos, entupimentos, instalações e reformas hidráulicas com agilidade e eficiência.",
		Services: []string{
			"Reparo de vazamentos",
			"Desentupimento de pias e ralos",
			"Instalação de torneiras e registros",
			"Troca de sifões e válvulas",
			"Instalação de aquecedores",
			"Reparo em caixas d'água",
			"Instalação de filtros",
			"Manutenção de tubulações",
		},
		Benefits: []string{"Atendimento rápido", "Equipamentos modernos", "Diagnóstico preciso", "Preços competitivos"},
		Keywords: "encanador, hidráulica, vazamento, desentupimento, torneira, registro",
	},
	"Pintura": {
		Category:        "Pintura",
		Title:           "Serviços de Pintura Residencial e Comercial",
		Description:     "Pintor profissional para pintura interna, externa, residencial e comercial em São Paulo",
		LongDescription: "Transforme seus ambientes com nossos serviços de pintura profissional. Trabalhamos com tintas de qualidade e técnicas modernas para garantir acabamento perfeito e durabilidade.",
		Services: []string{
			"Pintura interna de residências",
			"Pintura externa de fachadas",
			"Pintura de apartamentos",
			"Aplicação de textura",
			"Pintura de portões e grades",
			"Grafiato e texturas especiais",
			"Preparação de paredes",
			"Pintura comercial",
		},
		Benefits: []string{"Pintores experientes", "Tintas de primeira linha", "Acabamento impecável", "Ambiente protegido"},
		Keywords: "pintor, pintura residencial, pintura comercial, textura, grafiato",
	},
	"Montagem de Móveis": {
		Category:        "Montagem de Móveis",
		Title:           "Montagem de Móveis Profissional",
		Description:     "Montador de móveis especializado para montagem e desmontagem de todos os tipos de móveis",
		LongDescription: "Montagem profissional de móveis planejados e modulados. Garantimos montagem correta, rápida e segura de seus móveis, preservando a integridade e prolongando a vida útil.",
		Services: []string{
			"Montagem de guarda-roupas",
			"Montagem de cozinhas planejadas",
			"Montagem de estantes e racks",
			"Montagem de escrivaninhas",
			"Montagem de berços e cômodas",
			"Montagem de armários",
			"Desmontagem e remontagem",
			"Ajustes e correções",
		},
		Benefits: []string{"Montadores experientes", "Ferramentas adequadas", "Cuidado com acabamentos", "Rapidez na execução"},
		Keywords: "montador de móveis, montagem de guarda-roupa, montagem de cozinha, móveis planejados",
	},
	"Instalações": {
		Category:        "Instalações",
		Title:           "Serviços de Instalações Diversas",
		Description:     "Instalação profissional de suportes, cortinas, prateleiras e muito mais",
		LongDescription: "Serviços especializados de instalação para deixar sua casa ou escritório completo. Instalamos desde suportes de TV até sistemas de organização com segurança e precisão.",
		Services: []string{
			"Instalação de suportes de TV",
			"Instalação de cortinas e persianas",
			"Instalação de prateleiras",
			"Instalação de quadros e espelhos",
			"Instalação de ar-condicionado split",
			"Instalação de ventiladores",
			"Instalação de trilhos e varões",
			"Fixação de objetos em geral",
		},
		Benefits: []string{"Instalação segura", "Conhecimento técnico", "Ferramentas profissionais", "Garantia de fixação"},
		Keywords: "instalação, suporte de tv, cortinas, prateleiras, ar condicionado",
	},
	"Alvenaria e Drywall": {
		Category:        "Alvenaria e Drywall",
		Title:           "Alvenaria e Drywall",
		Description:     "Pequenas obras, reformas e divisórias em drywall para residências e comércios",
		LongDescription: "Executamos reparos de alvenaria, fechamentos e divisórias em drywall com acabamento limpo e prazos curtos, do planejamento à entrega.",
		Services: []string{
			"Divisórias em drywall",
			"Forros de gesso e drywall",
			"Nichos e sancas",
			"Reparo de trincas e rachaduras",
			"Assentamento de blocos",
			"Reboco e regularização de paredes",
		},
		Benefits: []string{"Obra limpa", "Prazos curtos", "Acabamento preciso", "Orçamento sem compromisso"},
		Keywords: "drywall, alvenaria, gesso, divisória, reforma",
	},
}

// LookupService returns the service content for a category.
func LookupService(category string) (Service, bool) {
	s, ok := services[category]
	return s, ok
}

// Services returns the content of every category in catalogue order.
func Services() []Service {
	out := make([]Service, 0, len(Categories))
	for _, c := range Categories {
		if s, ok := services[c]; ok {
			out = append(out, s)
		}
	}
	return out
}
